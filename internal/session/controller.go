package session

import (
	"context"
	"net/http"

	"quickorder/internal/domain"
	"quickorder/internal/httpx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Visitor interface {
	Visit(ctx context.Context, clientID string) (bool, error)
}

type Controller struct {
	visits Visitor
	logger *zap.Logger
}

func NewController(visits Visitor, logger *zap.Logger) *Controller {
	return &Controller{
		visits: visits,
		logger: logger,
	}
}

type sessionResponse struct {
	ClientID      string       `json:"clientId"`
	FirstVisit    bool         `json:"firstVisit"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

func (c *Controller) GetSession(w http.ResponseWriter, r *http.Request) {
	s := FromContext(r.Context())
	logger := c.logger.With(
		zap.String("traceId", uuid.New().String()),
		zap.String("clientId", s.ClientID),
	)

	first, err := c.visits.Visit(r.Context(), s.ClientID)
	if err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	httpx.WriteJSON(w, logger, http.StatusOK, sessionResponse{
		ClientID:      s.ClientID,
		FirstVisit:    first,
		Authenticated: s.Authenticated(),
		User:          s.User,
	})
}
