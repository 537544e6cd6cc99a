package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

type OrderRepository interface {
	List(ctx context.Context) ([]domain.Order, error)
	RemoveOwner(ctx context.Context, ownerID string) (int, error)
}

type Notice struct {
	OrderNumber string `json:"orderNumber"`
	Message     string `json:"message"`
}

// HistoryUseCase serves a client's view of the order log.
type HistoryUseCase struct {
	repo   OrderRepository
	store  storage.Store
	logger *zap.Logger

	noticeMu sync.Mutex
}

func NewHistoryUseCase(repo OrderRepository, store storage.Store, logger *zap.Logger) *HistoryUseCase {
	return &HistoryUseCase{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

func (uc *HistoryUseCase) History(ctx context.Context, clientID string) ([]domain.Order, error) {
	orders, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	own := make([]domain.Order, 0)
	for _, o := range orders {
		if o.OwnerID == clientID {
			own = append(own, o)
		}
	}
	return own, nil
}

// Receipt returns the client's order with the given number, or its most
// recent order when no number is given.
func (uc *HistoryUseCase) Receipt(ctx context.Context, clientID, orderNumber string) (*domain.Order, error) {
	own, err := uc.History(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(own) == 0 {
		return nil, apperrors.NewNotFoundError("No receipt found")
	}
	if orderNumber == "" {
		return &own[0], nil
	}

	for i := range own {
		if own[i].OrderNumber == orderNumber {
			return &own[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError("Order not found")
}

// CancellationNotices reports each of the client's cancelled orders once. The
// set of already reported order numbers is kept in the store.
func (uc *HistoryUseCase) CancellationNotices(ctx context.Context, clientID string) ([]Notice, error) {
	uc.noticeMu.Lock()
	defer uc.noticeMu.Unlock()

	own, err := uc.History(ctx, clientID)
	if err != nil {
		return nil, err
	}

	key := storage.NotifiedCancelledKey(clientID)
	var notified []string
	if _, err := storage.GetJSON(ctx, uc.store, key, &notified); err != nil {
		var corrupted *storage.CorruptedError
		if !errors.As(err, &corrupted) {
			return nil, fmt.Errorf("reading notified orders: %w", err)
		}
		uc.logger.Warn("resetting corrupted notified set", zap.String("clientId", clientID), zap.Error(err))
		notified = nil
	}

	seen := make(map[string]struct{}, len(notified))
	for _, n := range notified {
		seen[n] = struct{}{}
	}

	notices := make([]Notice, 0)
	for _, o := range own {
		if o.Status != domain.OrderStatusCancelled {
			continue
		}
		if _, ok := seen[o.OrderNumber]; ok {
			continue
		}
		seen[o.OrderNumber] = struct{}{}
		notified = append(notified, o.OrderNumber)
		notices = append(notices, Notice{
			OrderNumber: o.OrderNumber,
			Message:     fmt.Sprintf("Order #%s has been cancelled by admin.", o.OrderNumber),
		})
	}

	if len(notices) > 0 {
		if err := storage.SetJSON(ctx, uc.store, key, notified); err != nil {
			return nil, fmt.Errorf("writing notified orders: %w", err)
		}
	}
	return notices, nil
}

// ClearHistory removes the client's orders from the shared log together with
// its notified set. Other clients' orders are kept.
func (uc *HistoryUseCase) ClearHistory(ctx context.Context, clientID string) (int, error) {
	removed, err := uc.repo.RemoveOwner(ctx, clientID)
	if err != nil {
		return 0, err
	}
	if err := uc.store.Delete(ctx, storage.NotifiedCancelledKey(clientID)); err != nil {
		return removed, fmt.Errorf("clearing notified orders: %w", err)
	}

	uc.logger.Info("order history cleared", zap.String("clientId", clientID), zap.Int("removed", removed))
	return removed, nil
}
