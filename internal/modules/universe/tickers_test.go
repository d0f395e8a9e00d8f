package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"petr4", "PETR4.SA"},
		{" VALE3.SA ", "VALE3.SA"},
		{"itub4.sa", "ITUB4.SA"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTicker(tt.in))
		})
	}
}

func TestNormalizeTickers(t *testing.T) {
	got := NormalizeTickers([]string{"petr4", "", "PETR4.SA", "vale3"})
	assert.Equal(t, []string{"PETR4.SA", "VALE3.SA"}, got)
}

func TestDefaultSectors(t *testing.T) {
	sectors := DefaultSectors()
	assert.Len(t, sectors, 15)
	for sector, tickers := range sectors {
		assert.NotEmpty(t, tickers, sector)
		for _, ticker := range tickers {
			assert.Equal(t, NormalizeTicker(ticker), ticker)
		}
	}
	// AZUL4 and GOLL4 belong to two sectors.
	assert.Equal(t, []string{"Aviação", "Transporte"}, sectors.ByTicker()["AZUL4.SA"])
}
