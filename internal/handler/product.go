package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/metrics"
	"github.com/shopcore/shopcore/internal/middleware"
	"github.com/shopcore/shopcore/internal/model"
)

// ProductStore is the persistence surface the catalog handler needs.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	ListProducts(ctx context.Context) ([]*model.Product, error)
}

// ProductHandler handles catalog endpoints.
type ProductHandler struct {
	store   ProductStore
	cfg     *config.Config
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) *ProductHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProductHandler{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: recorder,
	}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if products == nil {
		products = []*model.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := &model.Product{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Tags:        req.Tags,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		h.internalError(w, r, err)
		return
	}

	h.metrics.IncProductCreated()
	h.logger.Info("product_created",
		"product_id", product.ID,
		"name", product.Name,
	)

	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	writeInternalError(w, h.logger, middleware.GetRequestID(r.Context()), err, h.cfg.IsDevelopment())
}
