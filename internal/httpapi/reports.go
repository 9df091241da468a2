package httpapi

import (
	"net/http"
)

const (
	defaultReportDays = 30
	defaultTopLimit   = 10
)

func (s *Server) dailyReport(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days", defaultReportDays)
	if !ok {
		return
	}

	stats, err := s.reports.GetSalesStats(r.Context(), days)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) topProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultTopLimit)
	if !ok {
		return
	}

	top, err := s.reports.GetTopSellingProducts(r.Context(), limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}

func (s *Server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	weekly, err := s.reports.GetWeeklySales(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, weekly)
}

func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request) {
	monthly, err := s.reports.GetMonthlySales(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, monthly)
}
