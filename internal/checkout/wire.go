package checkout

import (
	"quickorder/internal/config"
	"quickorder/internal/metrics"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

func NewModule(cart CartStore, orders OrderLog, docs DocumentAdder, store storage.Store, cfg config.PaymentConfig, m *metrics.Metrics, logger *zap.Logger) *Controller {
	processor := NewSimulatedProcessor(DefaultSteps, cfg.StepScale)
	svc := NewService(cart, orders, docs, store, processor, m, logger)
	return NewController(svc, logger)
}
