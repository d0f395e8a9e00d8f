package universe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/rs/zerolog"
)

// companyColumns lists the companies table columns, missing numbers read as 0.
const companyColumns = `ticker, company_name, COALESCE(sector, '') AS sector,
COALESCE(market_cap, 0) AS market_cap, COALESCE(stock_price, 0) AS stock_price,
COALESCE(ebit, 0) AS ebit, COALESCE(net_income, 0) AS net_income, COALESCE(revenue, 0) AS revenue,
COALESCE(equity, 0) AS equity, COALESCE(total_debt, 0) AS total_debt,
COALESCE(current_assets, 0) AS current_assets, COALESCE(current_liabilities, 0) AS current_liabilities,
COALESCE(accounts_receivable, 0) AS accounts_receivable, COALESCE(inventory, 0) AS inventory,
COALESCE(accounts_payable, 0) AS accounts_payable,
COALESCE(property_plant_equipment, 0) AS property_plant_equipment, collected_at`

// CompanyRepository reads company snapshots collected by the data supplier.
type CompanyRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewCompanyRepository creates a company repository.
func NewCompanyRepository(db *sqlx.DB, log zerolog.Logger) *CompanyRepository {
	return &CompanyRepository{
		db:  db,
		log: log.With().Str("repo", "company").Logger(),
	}
}

// GetCompanies returns every stored snapshot ordered by ticker.
func (r *CompanyRepository) GetCompanies(ctx context.Context) ([]domain.CompanyFinancialData, error) {
	var companies []domain.CompanyFinancialData
	query := "SELECT " + companyColumns + " FROM companies ORDER BY ticker"
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}

	r.log.Debug().Int("count", len(companies)).Msg("Loaded companies")
	return companies, nil
}

// GetByTicker returns one snapshot, or nil when the ticker is unknown.
func (r *CompanyRepository) GetByTicker(ctx context.Context, ticker string) (*domain.CompanyFinancialData, error) {
	var company domain.CompanyFinancialData
	query := r.db.Rebind("SELECT " + companyColumns + " FROM companies WHERE ticker = ?")
	err := r.db.GetContext(ctx, &company, query, NormalizeTicker(ticker))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company %s: %w", ticker, err)
	}
	return &company, nil
}

// Upsert stores a snapshot, replacing any previous row for the ticker.
func (r *CompanyRepository) Upsert(ctx context.Context, company domain.CompanyFinancialData) error {
	company.Ticker = NormalizeTicker(company.Ticker)
	if company.Ticker == "" {
		return fmt.Errorf("company ticker is empty")
	}

	query := `INSERT INTO companies (ticker, company_name, sector, market_cap, stock_price, ebit,
		net_income, revenue, equity, total_debt, current_assets, current_liabilities,
		accounts_receivable, inventory, accounts_payable, property_plant_equipment, collected_at)
	VALUES (:ticker, :company_name, :sector, :market_cap, :stock_price, :ebit,
		:net_income, :revenue, :equity, :total_debt, :current_assets, :current_liabilities,
		:accounts_receivable, :inventory, :accounts_payable, :property_plant_equipment, :collected_at)
	ON CONFLICT (ticker) DO UPDATE SET
		company_name = excluded.company_name,
		sector = excluded.sector,
		market_cap = excluded.market_cap,
		stock_price = excluded.stock_price,
		ebit = excluded.ebit,
		net_income = excluded.net_income,
		revenue = excluded.revenue,
		equity = excluded.equity,
		total_debt = excluded.total_debt,
		current_assets = excluded.current_assets,
		current_liabilities = excluded.current_liabilities,
		accounts_receivable = excluded.accounts_receivable,
		inventory = excluded.inventory,
		accounts_payable = excluded.accounts_payable,
		property_plant_equipment = excluded.property_plant_equipment,
		collected_at = excluded.collected_at`

	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", company.Ticker, err)
	}
	return nil
}
