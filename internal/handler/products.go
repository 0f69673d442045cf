package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sabor-pos/api/internal/catalog"
	"github.com/sabor-pos/api/internal/gateway"
)

// CatalogStore defines the catalog reads product handlers need.
// Satisfied by *postgres.Store; narrow interface for testability.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// ProductHandler serves the catalog read endpoints.
type ProductHandler struct {
	store CatalogStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store CatalogStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// --- Response types ---

type varietyResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
}

type extraResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	MaxQuantity int32     `json:"max_quantity"`
}

type productResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Price        string            `json:"price"`
	SoldByWeight bool              `json:"sold_by_weight"`
	MaxExtras    *int32            `json:"max_extras"`
	Varieties    []varietyResponse `json:"varieties"`
	Extras       []extraResponse   `json:"extras"`
}

func toProductResponse(p *catalog.Product) productResponse {
	resp := productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.StringFixed(2),
		SoldByWeight: p.SoldByWeight,
		MaxExtras:    p.MaxExtras,
		Varieties:    make([]varietyResponse, 0, len(p.Varieties)),
		Extras:       make([]extraResponse, 0, len(p.Extras)),
	}
	for _, v := range p.Varieties {
		resp.Varieties = append(resp.Varieties, varietyResponse{
			ID:    v.ID,
			Name:  v.Name,
			Price: v.Price.StringFixed(2),
		})
	}
	for _, e := range p.Extras {
		resp.Extras = append(resp.Extras, extraResponse{
			ID:          e.ID,
			Name:        e.Name,
			Price:       e.Price.StringFixed(2),
			MaxQuantity: e.MaxQuantity,
		})
	}
	return resp
}

// --- Handlers ---

// List returns all active products with their varieties and extras.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list products")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Error().Err(err).Msg("get product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}
