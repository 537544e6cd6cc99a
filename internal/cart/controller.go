package cart

import (
	"context"
	"net/http"
	"net/url"

	apperrors "quickorder/internal/errors"
	"quickorder/internal/httpx"
	"quickorder/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartService interface {
	Get(ctx context.Context, clientID string) (View, error)
	Add(ctx context.Context, clientID, name string, price float64, image string) (*MutationResult, error)
	Remove(ctx context.Context, clientID, name string) (*MutationResult, error)
	SetQuantity(ctx context.Context, clientID, name string, delta int) (*MutationResult, error)
	Undo(ctx context.Context, clientID, token string) (*MutationResult, error)
	Clear(ctx context.Context, clientID string) error
	Reorder(ctx context.Context, clientID, orderNumber string) (*MutationResult, error)
}

type Controller struct {
	service CartService
	logger  *zap.Logger
}

func NewController(service CartService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

type AddItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type UpdateQuantityRequest struct {
	Delta *int `json:"delta"`
}

func (c *Controller) GetCart(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	view, err := c.service.Get(r.Context(), s.ClientID)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, view)
}

func (c *Controller) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	if err := c.service.Clear(r.Context(), s.ClientID); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) AddItem(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	res, err := c.service.Add(r.Context(), s.ClientID, req.Name, req.Price, req.Image)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, res)
}

func (c *Controller) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	var req UpdateQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	if req.Delta == nil || *req.Delta == 0 {
		httpx.WriteValidationError(w, logger, "delta is required", apperrors.ValidationDetail{
			Field:   "delta",
			Message: "delta must be a non-zero integer",
		})
		return
	}

	res, err := c.service.SetQuantity(r.Context(), s.ClientID, itemName(r), *req.Delta)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, res)
}

func (c *Controller) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	res, err := c.service.Remove(r.Context(), s.ClientID, itemName(r))
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, res)
}

func (c *Controller) UndoRemove(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	res, err := c.service.Undo(r.Context(), s.ClientID, chi.URLParam(r, "token"))
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, res)
}

func (c *Controller) Reorder(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	res, err := c.service.Reorder(r.Context(), s.ClientID, chi.URLParam(r, "orderNumber"))
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, res)
}

func (c *Controller) begin(r *http.Request) (session.Session, *zap.Logger) {
	s := session.FromContext(r.Context())
	return s, c.logger.With(
		zap.String("traceId", uuid.New().String()),
		zap.String("clientId", s.ClientID),
	)
}

// itemName returns the decoded {name} segment. chi matches on RawPath only
// when the request carried one, otherwise the param is already decoded.
func itemName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return raw
	}
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
