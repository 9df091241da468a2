package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-pos/internal/catalog"
)

type createProductRequest struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	Stock          int             `json:"stock"`
	StockThreshold *int            `json:"stock_threshold"`
	Code           *string         `json:"code"`
}

type updateProductRequest struct {
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	BuyPrice       *decimal.Decimal `json:"buy_price"`
	SellPrice      *decimal.Decimal `json:"sell_price"`
	Stock          *int             `json:"stock"`
	StockThreshold *int             `json:"stock_threshold"`
	Code           *string          `json:"code"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.GetAllProducts(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := s.catalog.AddProduct(r.Context(), catalog.ProductInput{
		Name:           req.Name,
		Category:       req.Category,
		BuyPrice:       req.BuyPrice,
		SellPrice:      req.SellPrice,
		Stock:          req.Stock,
		StockThreshold: req.StockThreshold,
		Code:           req.Code,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	product, err := s.catalog.GetProductByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	var req updateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := s.catalog.UpdateProduct(r.Context(), id, catalog.ProductChanges(req))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) listMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", catalog.DefaultMovementLimit)
	if !ok {
		return
	}

	movements, err := s.catalog.ListStockMovements(r.Context(), id, limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, movements)
}

func (s *Server) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.GetLowStockProducts(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) lowStockByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.catalog.GetLowStockProductsByCategory(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
