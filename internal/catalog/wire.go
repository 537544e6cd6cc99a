package catalog

import (
	"quickorder/internal/docstore"
	"quickorder/internal/metrics"

	"go.uber.org/zap"
)

func NewModule(docs docstore.Store, m *metrics.Metrics, logger *zap.Logger) *Controller {
	loader := NewLoader(docs, m, logger)
	svc := NewService(loader, docs, logger)
	return NewController(svc, logger)
}
