package session

import (
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

func NewModule(store storage.Store, verifier TokenVerifier, logger *zap.Logger) (*Middleware, *Controller) {
	return NewMiddleware(verifier, logger), NewController(NewVisits(store, logger), logger)
}
