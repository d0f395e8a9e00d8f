package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the valuation and Fleuriet routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/valuation", func(r chi.Router) {
		r.Get("/report", h.HandleGetReport)
		r.Get("/companies/{ticker}", h.HandleGetCompany)
		r.Get("/ranking", h.HandleGetRanking)
		r.Post("/ranking/custom", h.HandleCustomRanking)
		r.Get("/opportunities", h.HandleGetOpportunities)
		r.Get("/portfolio", h.HandleGetPortfolio)
		r.Post("/portfolio/eva", h.HandlePortfolioEVA)
		r.Get("/diagnostics", h.HandleGetDiagnostics)
		r.Get("/sectors", h.HandleGetSectors)
		r.Get("/runs", h.HandleGetRuns)
		r.Post("/run", h.HandleRunAnalysis)
	})

	r.Route("/fleuriet", func(r chi.Router) {
		r.Get("/{ticker}", h.HandleGetFleuriet)
		r.Post("/analyze", h.HandlePostFleuriet)
	})
}
