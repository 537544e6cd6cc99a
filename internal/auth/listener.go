package auth

import (
	"context"

	"quickorder/internal/domain"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

// UserCacheListener keeps firebaseUser:{client} in step with the signed-in
// user so pages can render the account name without a token round trip.
func UserCacheListener(store storage.Store, logger *zap.Logger) StateListener {
	return func(ctx context.Context, clientID string, user *domain.User) {
		if clientID == "" {
			return
		}

		key := storage.UserCacheKey(clientID)
		if user == nil {
			if err := store.Delete(ctx, key); err != nil {
				logger.Warn("clearing cached user failed", zap.String("clientId", clientID), zap.Error(err))
			}
			return
		}

		cached := domain.User{
			UID:         user.UID,
			Email:       user.Email,
			DisplayName: domain.DisplayNameFor(user.DisplayName, user.Email),
		}
		if err := storage.SetJSON(ctx, store, key, cached); err != nil {
			logger.Warn("caching user failed", zap.String("clientId", clientID), zap.Error(err))
		}
	}
}
