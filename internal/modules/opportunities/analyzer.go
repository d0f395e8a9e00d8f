// Package opportunities classifies companies into investment buckets, clusters them
// on their value metrics and ranks them within their sectors.
package opportunities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/rs/zerolog"
)

const (
	// UndervaluedThreshold is the upside percentage above which a company is undervalued.
	UndervaluedThreshold = 20.0
	// BestOpportunitiesLimit caps the best opportunities list.
	BestOpportunitiesLimit = 5
	// SentinelClusterID marks a clustering result that could not be computed.
	SentinelClusterID = -1
	// SentinelClusterLabel is the label of the sentinel cluster.
	SentinelClusterLabel = "Clustering not possible"
)

// Scored pairs a ticker with the value it was selected or ranked on.
type Scored struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// Opportunity is an entry of the best opportunities list.
type Opportunity struct {
	Ticker string  `json:"ticker"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// ClusterGroup lists the tickers of one cluster.
type ClusterGroup struct {
	ID      int      `json:"id"`
	Label   string   `json:"label"`
	Tickers []string `json:"tickers"`
}

// ClusterResult is the partition of the analysed companies. When clustering fails
// Groups holds the single sentinel group and Error explains why.
type ClusterResult struct {
	Assignments map[string]int `json:"assignments"`
	Groups      []ClusterGroup `json:"groups"`
	Error       string         `json:"error,omitempty"`
}

// Failed reports whether the result is the sentinel.
func (c ClusterResult) Failed() bool {
	return len(c.Groups) == 1 && c.Groups[0].ID == SentinelClusterID
}

// OpportunitySet is the full classification of one batch of companies.
type OpportunitySet struct {
	ValueCreators     []Scored            `json:"value_creators"`
	GrowthPotential   []Scored            `json:"growth_potential"`
	Undervalued       []Scored            `json:"undervalued"`
	BestOpportunities []Opportunity       `json:"best_opportunities"`
	Clusters          ClusterResult       `json:"clusters"`
	SectorRankings    map[string][]Scored `json:"sector_rankings"`
}

// Analyzer identifies opportunities over a batch of companies.
type Analyzer struct {
	calc      *metrics.Calculator
	clusterer Clusterer
	log       zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClusterer replaces the default seeded k-means.
func WithClusterer(c Clusterer) Option {
	return func(a *Analyzer) {
		a.clusterer = c
	}
}

// NewAnalyzer creates an analyzer on top of a metrics calculator.
func NewAnalyzer(calc *metrics.Calculator, log zerolog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		calc:      calc,
		clusterer: NewKMeans(),
		log:       log.With().Str("module", "opportunities").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Identify buckets, clusters and sector-ranks the companies. It never fails: clustering
// problems produce the sentinel cluster and an empty sector map yields no rankings.
func (a *Analyzer) Identify(companies []domain.CompanyFinancialData, sectors domain.SectorMap) OpportunitySet {
	features := a.PrepareFeatures(companies)

	set := OpportunitySet{
		ValueCreators:     []Scored{},
		GrowthPotential:   []Scored{},
		Undervalued:       []Scored{},
		BestOpportunities: BestOpportunities(features, BestOpportunitiesLimit),
		Clusters:          a.ClusterFeatures(features),
		SectorRankings:    SectorRankings(features, sectors),
	}

	for _, f := range features {
		if f.EVAPct > 0 {
			set.ValueCreators = append(set.ValueCreators, Scored{Ticker: f.Ticker, Value: f.EVAPct})
		}
		if f.EFVPct > 0 {
			set.GrowthPotential = append(set.GrowthPotential, Scored{Ticker: f.Ticker, Value: f.EFVPct})
		}
		if f.UpsidePct > UndervaluedThreshold {
			set.Undervalued = append(set.Undervalued, Scored{Ticker: f.Ticker, Value: f.UpsidePct})
		}
	}

	a.log.Info().
		Int("companies", len(features)).
		Int("value_creators", len(set.ValueCreators)).
		Int("growth_potential", len(set.GrowthPotential)).
		Int("undervalued", len(set.Undervalued)).
		Int("clusters", len(set.Clusters.Groups)).
		Int("sectors", len(set.SectorRankings)).
		Msg("Opportunities identified")

	return set
}

// BestOpportunities returns the top features by score with the reasons they qualify.
func BestOpportunities(features []Feature, limit int) []Opportunity {
	ranked := make([]Feature, len(features))
	copy(ranked, features)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Opportunity, 0, len(ranked))
	for _, f := range ranked {
		out = append(out, Opportunity{Ticker: f.Ticker, Reason: reason(f), Score: f.Score})
	}
	return out
}

func reason(f Feature) string {
	var parts []string
	if f.EVAPct > 0 {
		parts = append(parts, "EVA positive")
	}
	if f.EFVPct > 0 {
		parts = append(parts, "EFV positive")
	}
	if f.UpsidePct > 0 {
		parts = append(parts, "Upside")
	}
	return strings.Join(parts, ", ")
}

// ClusterFeatures standardises the clustering columns and partitions them.
func (a *Analyzer) ClusterFeatures(features []Feature) ClusterResult {
	labels, err := a.cluster(features)
	if err != nil {
		a.log.Warn().Err(err).Int("companies", len(features)).Msg("Clustering not possible")
		return ClusterResult{
			Assignments: map[string]int{},
			Groups:      []ClusterGroup{{ID: SentinelClusterID, Label: SentinelClusterLabel, Tickers: []string{}}},
			Error:       err.Error(),
		}
	}

	result := ClusterResult{Assignments: make(map[string]int, len(features))}
	for i, f := range features {
		id := labels[i]
		result.Assignments[f.Ticker] = id
		for len(result.Groups) <= id {
			n := len(result.Groups)
			result.Groups = append(result.Groups, ClusterGroup{ID: n, Label: fmt.Sprintf("Cluster %d", n+1)})
		}
		result.Groups[id].Tickers = append(result.Groups[id].Tickers, f.Ticker)
	}
	return result
}

func (a *Analyzer) cluster(features []Feature) (labels []int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("clustering panicked: %v", p)
		}
	}()

	if len(features) < DefaultClusters {
		return nil, fmt.Errorf("%w: %d companies", ErrTooFewSamples, len(features))
	}

	x := FeatureMatrix(features)
	state, err := Fit(x)
	if err != nil {
		return nil, err
	}
	scaled, err := Transform(state, x)
	if err != nil {
		return nil, err
	}

	labels, err = a.clusterer.Cluster(scaled)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(features) {
		return nil, fmt.Errorf("clusterer returned %d labels for %d companies", len(labels), len(features))
	}
	for _, l := range labels {
		if l < 0 {
			return nil, fmt.Errorf("clusterer returned invalid label %d", l)
		}
	}
	return relabel(labels), nil
}
