package ranking

import (
	"testing"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingCriteria_Normalize(t *testing.T) {
	c := RankingCriteria{EVAWeight: 2, EFVWeight: 2, UpsideWeight: 1}

	n, ok := c.Normalize()
	require.True(t, ok)
	assert.InDelta(t, 0.4, n.EVAWeight, 1e-12)
	assert.InDelta(t, 0.2, n.UpsideWeight, 1e-12)
	assert.InDelta(t, 1.0, n.total(), 1e-12)

	zero, ok := RankingCriteria{}.Normalize()
	assert.False(t, ok)
	assert.Equal(t, RankingCriteria{}, zero)
}

func TestDefaultRankingCriteria_SumsToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultRankingCriteria().total(), 1e-12)
}

func TestCustomRank(t *testing.T) {
	r := newTestRanker()

	liquid := company("LIQD3.SA", 100)
	liquid.CurrentAssets = 900

	scores := r.CustomRank([]domain.CompanyFinancialData{
		company("PLAIN3.SA", 100),
		liquid,
	}, RankingCriteria{LiquidityWeight: 1})

	require.Len(t, scores, 2)
	assert.Equal(t, "LIQD3.SA", scores[0].Ticker)
	assert.InDelta(t, 1.0, scores[0].FinalScore, 1e-12)
	assert.InDelta(t, 0.0, scores[1].FinalScore, 1e-12)
	assert.InDelta(t, 10.0, scores[0].Liquidity, 1e-12)
}

func TestCustomRank_ZeroDenominators(t *testing.T) {
	r := newTestRanker()
	d := company("NORV3.SA", 100)
	d.Revenue = 0
	d.CurrentLiabilities = 0

	scores := r.CustomRank([]domain.CompanyFinancialData{d}, DefaultRankingCriteria())
	require.Len(t, scores, 1)
	assert.Equal(t, 0.0, scores[0].Profitability)
	assert.Equal(t, 0.0, scores[0].Liquidity)
	// A single company scales every component to zero.
	assert.Equal(t, 0.0, scores[0].FinalScore)
}

func TestCustomRank_ConstantScoresKeepInputOrder(t *testing.T) {
	r := newTestRanker()

	scores := r.CustomRank([]domain.CompanyFinancialData{
		company("FRST3.SA", 100),
		company("SCND3.SA", 100),
	}, DefaultRankingCriteria())

	require.Len(t, scores, 2)
	assert.Equal(t, "FRST3.SA", scores[0].Ticker)
	assert.Equal(t, "SCND3.SA", scores[1].Ticker)
}

func TestCustomRank_Empty(t *testing.T) {
	r := newTestRanker()
	assert.Empty(t, r.CustomRank(nil, DefaultRankingCriteria()))
}
