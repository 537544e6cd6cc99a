package cart

import (
	"quickorder/internal/config"
	"quickorder/internal/metrics"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

func NewModule(store storage.Store, orders OrderFinder, cfg config.CartConfig, m *metrics.Metrics, logger *zap.Logger) (*Service, *Controller) {
	svc := NewService(store, NewUndoRegistry(cfg.UndoWindow), orders, m, cfg.MaxAge, logger)
	return svc, NewController(svc, logger)
}
