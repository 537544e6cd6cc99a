package catalog

import (
	"context"
	"fmt"
	"net/http"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/httpx"
	"quickorder/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	List(ctx context.Context, category, query string) (*Listing, error)
	Submit(ctx context.Context, user domain.User, req SubmitRequest) (*domain.Product, error)
	Export(ctx context.Context) ([]map[string]any, error)
}

const exportFilename = "products-export.json"

type Controller struct {
	service CatalogService
	logger  *zap.Logger
}

func NewController(service CatalogService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) ListProducts(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	q := r.URL.Query()
	listing, err := c.service.List(r.Context(), q.Get("category"), q.Get("q"))
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, listing)
}

func (c *Controller) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	if s.User == nil {
		httpx.WriteError(w, logger, apperrors.NewUnauthorizedError("sign in required"))
		return
	}

	var req SubmitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	product, err := c.service.Submit(r.Context(), *s.User, req)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusCreated, product)
}

// ExportProducts downloads the products collection as a JSON file.
func (c *Controller) ExportProducts(w http.ResponseWriter, r *http.Request) {
	logger := c.logger.With(zap.String("traceId", uuid.New().String()))

	products, err := c.service.Export(r.Context())
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	httpx.WriteJSON(w, logger, http.StatusOK, products)
}
