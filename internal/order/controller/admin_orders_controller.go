package controller

import (
	"context"
	"net/http"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/httpx"
	"quickorder/internal/order/service"
	"quickorder/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatusService interface {
	UpdateStatus(ctx context.Context, orderNumber string, next domain.OrderStatus) (*domain.Order, error)
	List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

type AdminOrdersController struct {
	service StatusService
	logger  *zap.Logger
}

func NewAdminOrdersController(service StatusService, logger *zap.Logger) *AdminOrdersController {
	return &AdminOrdersController{
		service: service,
		logger:  logger,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type updateStatusResponse struct {
	Order   OrderView `json:"order"`
	Message string    `json:"message"`
}

func (c *AdminOrdersController) ListOrders(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	var filter domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" && raw != "all" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			httpx.WriteValidationError(w, logger, "invalid status filter", apperrors.ValidationDetail{
				Field:   "status",
				Message: err.Error(),
			})
			return
		}
		filter = status
	}

	orders, err := c.service.List(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, historyResponse{Orders: viewsOf(orders)})
}

func (c *AdminOrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		httpx.WriteValidationError(w, logger, "invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of pending, confirmed, preparing, delivered, cancelled",
		})
		return
	}

	updated, err := c.service.UpdateStatus(r.Context(), chi.URLParam(r, "orderNumber"), next)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	httpx.WriteJSON(w, logger, http.StatusOK, updateStatusResponse{
		Order:   viewOf(*updated),
		Message: service.StatusMessage(next),
	})
}

func (c *AdminOrdersController) Stats(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	stats, err := c.service.Stats(r.Context())
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, stats)
}

func (c *AdminOrdersController) requestLogger(r *http.Request) *zap.Logger {
	s := session.FromContext(r.Context())
	return c.logger.With(
		zap.String("traceId", uuid.New().String()),
		zap.String("adminUid", s.UserID()),
	)
}
