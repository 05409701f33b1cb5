package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/postgres"
)

type ProductsHandler struct {
	Products postgres.ProductsRepo
}

func NewProductsHandler(products postgres.ProductsRepo) *ProductsHandler {
	return &ProductsHandler{Products: products}
}

// List returns the active session catalog.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.ListActive(r.Context())
	if err != nil {
		response.InternalError(w, "failed to load products")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(products)
}
