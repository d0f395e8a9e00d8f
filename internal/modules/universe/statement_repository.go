package universe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/modelfleuriet/valuation/internal/modules/fleuriet"
	"github.com/rs/zerolog"
)

// StatementRepository reads annual statements from the balance_sheets table.
type StatementRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewStatementRepository creates a statement repository.
func NewStatementRepository(db *sqlx.DB, log zerolog.Logger) *StatementRepository {
	return &StatementRepository{
		db:  db,
		log: log.With().Str("repo", "statement").Logger(),
	}
}

type statementRow struct {
	Ticker      string          `db:"ticker"`
	CVMCode     int             `db:"cvm_code"`
	CompanyName string          `db:"company_name"`
	Year        int             `db:"year"`
	AccountCode string          `db:"account_code"`
	Value       sql.NullFloat64 `db:"value"`
}

// GetStatements returns the statements of a ticker, one per year in ascending order.
func (r *StatementRepository) GetStatements(ctx context.Context, ticker string) ([]fleuriet.Statement, error) {
	ticker = NormalizeTicker(ticker)

	var rows []statementRow
	query := r.db.Rebind(`SELECT ticker, cvm_code, company_name, year, account_code, value
		FROM balance_sheets WHERE ticker = ? ORDER BY year, account_code`)
	if err := r.db.SelectContext(ctx, &rows, query, ticker); err != nil {
		return nil, fmt.Errorf("failed to query statements for %s: %w", ticker, err)
	}

	var statements []fleuriet.Statement
	for _, row := range rows {
		n := len(statements)
		if n == 0 || statements[n-1].Year != row.Year {
			statements = append(statements, fleuriet.Statement{
				Ticker:      row.Ticker,
				CompanyName: row.CompanyName,
				CVMCode:     row.CVMCode,
				Year:        row.Year,
			})
			n++
		}
		statements[n-1].Accounts = append(statements[n-1].Accounts, fleuriet.Account{
			Code:  row.AccountCode,
			Value: row.Value.Float64,
		})
	}

	r.log.Debug().Str("ticker", ticker).Int("years", len(statements)).Msg("Loaded statements")
	return statements, nil
}

// SaveStatement stores every account of a statement, replacing rows for the same year.
func (r *StatementRepository) SaveStatement(ctx context.Context, st fleuriet.Statement) error {
	st.Ticker = NormalizeTicker(st.Ticker)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del := tx.Rebind("DELETE FROM balance_sheets WHERE ticker = ? AND year = ?")
	if _, err := tx.ExecContext(ctx, del, st.Ticker, st.Year); err != nil {
		return fmt.Errorf("failed to clear statement %s/%d: %w", st.Ticker, st.Year, err)
	}

	insert := tx.Rebind(`INSERT INTO balance_sheets (ticker, cvm_code, company_name, year, account_code, value)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`)
	for _, acc := range st.Accounts {
		if _, err := tx.ExecContext(ctx, insert, st.Ticker, st.CVMCode, st.CompanyName, st.Year, acc.Code, acc.Value); err != nil {
			return fmt.Errorf("failed to insert account %s: %w", acc.Code, err)
		}
	}

	return tx.Commit()
}
