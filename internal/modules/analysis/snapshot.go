// Package analysis runs the valuation pipeline over the supplied universe and keeps
// the latest result available to the HTTP layer.
package analysis

import (
	"time"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/allocation"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/modelfleuriet/valuation/internal/modules/opportunities"
	"github.com/modelfleuriet/valuation/internal/modules/ranking"
)

// Snapshot is the immutable result of one analysis run.
type Snapshot struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	// RiskFreeRate is the decimal rate the run used (0.105 for 10.5%).
	RiskFreeRate float64        `json:"risk_free_rate"`
	Config       metrics.Config `json:"config"`

	Report         *ranking.Report                                     `json:"report"`
	Opportunities  opportunities.OpportunitySet                        `json:"opportunities"`
	Allocations    map[allocation.Profile]allocation.Allocation        `json:"allocations"`
	SectorExposure map[allocation.Profile][]allocation.GroupAllocation `json:"sector_exposure"`
	Sectors        domain.SectorMap                                    `json:"sectors"`
	Diagnostics    []metrics.Diagnostic                                `json:"diagnostics,omitempty"`
}

// Companies returns the input snapshots of the evaluated companies in report order.
func (s *Snapshot) Companies() []domain.CompanyFinancialData {
	if s == nil || s.Report == nil {
		return nil
	}
	out := make([]domain.CompanyFinancialData, len(s.Report.Rows))
	for i, rec := range s.Report.Rows {
		out[i] = rec.Raw
	}
	return out
}

// Calculator rebuilds a calculator with the rates the run used, for on-demand queries.
func (s *Snapshot) Calculator() *metrics.Calculator {
	return metrics.NewCalculator(s.Config)
}

// Allocation returns the stored allocation for a profile.
func (s *Snapshot) Allocation(p allocation.Profile) (allocation.Allocation, bool) {
	a, ok := s.Allocations[p]
	return a, ok
}
