package controller

import (
	"context"
	"net/http"

	"quickorder/internal/domain"
	"quickorder/internal/httpx"
	"quickorder/internal/order/usecase"
	"quickorder/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HistoryUseCase interface {
	History(ctx context.Context, clientID string) ([]domain.Order, error)
	Receipt(ctx context.Context, clientID, orderNumber string) (*domain.Order, error)
	CancellationNotices(ctx context.Context, clientID string) ([]usecase.Notice, error)
	ClearHistory(ctx context.Context, clientID string) (int, error)
}

type OrdersController struct {
	useCase HistoryUseCase
	logger  *zap.Logger
}

func NewOrdersController(useCase HistoryUseCase, logger *zap.Logger) *OrdersController {
	return &OrdersController{
		useCase: useCase,
		logger:  logger,
	}
}

type historyResponse struct {
	Orders []OrderView `json:"orders"`
}

type noticesResponse struct {
	Notices []usecase.Notice `json:"notices"`
}

type clearHistoryResponse struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

func (c *OrdersController) ListOrders(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	orders, err := c.useCase.History(r.Context(), s.ClientID)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, historyResponse{Orders: viewsOf(orders)})
}

func (c *OrdersController) ClearHistory(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	removed, err := c.useCase.ClearHistory(r.Context(), s.ClientID)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, clearHistoryResponse{
		Removed: removed,
		Message: "Order history cleared successfully!",
	})
}

func (c *OrdersController) Notices(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	notices, err := c.useCase.CancellationNotices(r.Context(), s.ClientID)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, noticesResponse{Notices: notices})
}

func (c *OrdersController) Receipt(w http.ResponseWriter, r *http.Request) {
	s, logger := c.begin(r)

	order, err := c.useCase.Receipt(r.Context(), s.ClientID, r.URL.Query().Get("order"))
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	httpx.WriteJSON(w, logger, http.StatusOK, viewOf(*order))
}

func (c *OrdersController) begin(r *http.Request) (session.Session, *zap.Logger) {
	s := session.FromContext(r.Context())
	return s, c.logger.With(
		zap.String("traceId", uuid.New().String()),
		zap.String("clientId", s.ClientID),
	)
}
