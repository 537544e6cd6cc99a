package session

import (
	"context"
	"fmt"

	"quickorder/internal/storage"

	"go.uber.org/zap"
)

type Visits struct {
	store  storage.Store
	logger *zap.Logger
}

func NewVisits(store storage.Store, logger *zap.Logger) *Visits {
	return &Visits{
		store:  store,
		logger: logger,
	}
}

// Visit reports whether this is the client's first visit and records that it
// has now visited.
func (v *Visits) Visit(ctx context.Context, clientID string) (bool, error) {
	key := storage.HasVisitedKey(clientID)

	_, found, err := v.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading visit flag: %w", err)
	}
	if found {
		return false, nil
	}

	if err := v.store.Set(ctx, key, "true"); err != nil {
		return false, fmt.Errorf("writing visit flag: %w", err)
	}
	v.logger.Debug("first visit", zap.String("clientId", clientID))
	return true, nil
}
