package auth

import (
	"quickorder/internal/config"
	"quickorder/internal/metrics"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

func NewModule(store storage.Store, cfg config.AuthConfig, m *metrics.Metrics, logger *zap.Logger) (*LocalProvider, *Controller) {
	provider := NewLocalProvider(store, cfg, logger)
	provider.OnAuthStateChanged(UserCacheListener(store, logger))
	return provider, NewController(provider, m, logger)
}
