package repository

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

// OrderLogRepository keeps every order in one shared value, newest first.
// Writers are serialised inside the process; two processes sharing a store
// can still overwrite each other's changes.
type OrderLogRepository struct {
	store  storage.Store
	logger *zap.Logger

	mu sync.Mutex
}

func NewOrderLogRepository(store storage.Store, logger *zap.Logger) *OrderLogRepository {
	return &OrderLogRepository{
		store:  store,
		logger: logger,
	}
}

func (r *OrderLogRepository) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(ctx)
}

func (r *OrderLogRepository) Prepend(ctx context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.read(ctx)
	if err != nil {
		return err
	}

	orders = append([]domain.Order{order}, orders...)
	return r.write(ctx, orders)
}

// Find returns the newest order with the given number.
func (r *OrderLogRepository) Find(ctx context.Context, orderNumber string) (*domain.Order, error) {
	orders, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].OrderNumber == orderNumber {
			return &orders[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError("Order not found")
}

// Update applies fn to the newest order with the given number and rewrites
// the log. When fn fails nothing is written.
func (r *OrderLogRepository) Update(ctx context.Context, orderNumber string, fn func(*domain.Order) error) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range orders {
		if orders[i].OrderNumber == orderNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("Order not found")
	}

	updated := orders[idx]
	if err := fn(&updated); err != nil {
		return nil, err
	}
	orders[idx] = updated

	if err := r.write(ctx, orders); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveOwner drops every order placed by the client and returns how many
// were removed.
func (r *OrderLogRepository) RemoveOwner(ctx context.Context, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.read(ctx)
	if err != nil {
		return 0, err
	}

	kept := orders[:0]
	for _, o := range orders {
		if o.OwnerID != ownerID {
			kept = append(kept, o)
		}
	}

	removed := len(orders) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, r.write(ctx, kept)
}

func (r *OrderLogRepository) read(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	_, err := storage.GetJSON(ctx, r.store, storage.KeyOrders, &orders)
	if err != nil {
		var corrupted *storage.CorruptedError
		if errors.As(err, &corrupted) {
			r.logger.Warn("discarding corrupted order log", zap.Error(err))
			return []domain.Order{}, nil
		}
		return nil, fmt.Errorf("reading order log: %w", err)
	}

	for i := range orders {
		if orders[i].Status == "" {
			orders[i].Status = domain.OrderStatusPending
		}
	}
	return orders, nil
}

func (r *OrderLogRepository) write(ctx context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	if err := storage.SetJSON(ctx, r.store, storage.KeyOrders, orders); err != nil {
		return fmt.Errorf("writing order log: %w", err)
	}
	return nil
}
