package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/sales"
	"github.com/safar/go-sql-pos/internal/store"
)

type registerSaleRequest struct {
	Items          []sales.SaleItem     `json:"items"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	AmountReceived decimal.Decimal      `json:"amount_received"`
}

func (s *Server) registerSale(w http.ResponseWriter, r *http.Request) {
	var req registerSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := s.sales.RegisterSale(r.Context(), req.Items, req.PaymentMethod, req.AmountReceived)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", store.DefaultPageSize)
	if !ok {
		return
	}

	page, err := s.sales.ListSales(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) todaySales(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.sales.GetTodaySales(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (s *Server) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sale")
	if !ok {
		return
	}

	sale, err := s.sales.GetSaleDetail(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (s *Server) cancelSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sale")
	if !ok {
		return
	}

	if err := s.sales.CancelSale(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "cancelled": true})
}
