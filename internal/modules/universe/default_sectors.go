package universe

import "github.com/modelfleuriet/valuation/internal/domain"

// DefaultSectors returns the built-in Ibovespa sector map.
// It is used when neither the database nor a sectors file provides one.
func DefaultSectors() domain.SectorMap {
	return domain.SectorMap{
		"Petróleo e Gás":   {"PETR4.SA", "PRIO3.SA", "RECV3.SA"},
		"Mineração":        {"VALE3.SA", "USIM3.SA", "USIM5.SA", "CSNA3.SA", "GGBR3.SA", "GGBR4.SA", "GOAU3.SA", "GOAU4.SA"},
		"Bancos":           {"ITUB3.SA", "ITUB4.SA", "BBDC3.SA", "BBDC4.SA", "BBAS3.SA", "SANB11.SA", "BBSE3.SA", "BPAC11.SA"},
		"Bebidas":          {"ABEV3.SA"},
		"Varejo":           {"MGLU3.SA", "LREN3.SA", "ASAI3.SA", "LWSA3.SA", "PCAR3.SA", "ARZZ3.SA", "CASH3.SA", "QUAL3.SA"},
		"Alimentos":        {"JBSS3.SA", "BEEF3.SA", "MRFG3.SA", "BRFS3.SA"},
		"Energia Elétrica": {"ELET3.SA", "ALUP11.SA", "CMIG3.SA", "CMIG4.SA", "ENBR3.SA", "ENEV3.SA", "EQTL3.SA", "OMGE3.SA", "SBSP3.SA", "TAEE11.SA"},
		"Telecomunicações": {"VIVT3.SA", "TIMS3.SA"},
		"Tecnologia":       {"TOTS3.SA"},
		"Saúde":            {"RADL3.SA", "RDOR3.SA", "FLRY3.SA", "HAPV3.SA"},
		"Transporte":       {"RENT3.SA", "AZUL4.SA", "GOLL4.SA", "RAIL3.SA", "CCRO3.SA"},
		"Construção Civil": {"EZTC3.SA", "MRVE3.SA"},
		"Papel e Celulose": {"SUZB3.SA", "KLBN11.SA"},
		"Aviação":          {"AZUL4.SA", "GOLL4.SA"},
		"Diversos":         {"WEGE3.SA", "COGN3.SA", "EMBR3.SA", "IRBR3.SA", "NTCO3.SA", "SLCE3.SA", "SMTO3.SA", "UGPA3.SA", "YDUQ3.SA", "B3SA3.SA"},
	}
}
