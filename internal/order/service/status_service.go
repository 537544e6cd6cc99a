package service

import (
	"context"
	"fmt"
	"time"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/metrics"

	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, orderNumber string, fn func(*domain.Order) error) (*domain.Order, error)
}

type Stats struct {
	TotalOrders  int                        `json:"totalOrders"`
	ActiveOrders int                        `json:"activeOrders"`
	Revenue      float64                    `json:"revenue"`
	ByStatus     map[domain.OrderStatus]int `json:"byStatus"`
}

// StatusService is the admin side of the order log: status transitions,
// filtered listings and dashboard figures.
type StatusService struct {
	repo    Repository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

func NewStatusService(repo Repository, m *metrics.Metrics, logger *zap.Logger) *StatusService {
	return &StatusService{
		repo:    repo,
		metrics: m,
		now:     time.Now,
		logger:  logger,
	}
}

// UpdateStatus moves an order to next when the transition table allows it.
// Rejected transitions leave the log untouched.
func (s *StatusService) UpdateStatus(ctx context.Context, orderNumber string, next domain.OrderStatus) (*domain.Order, error) {
	var from domain.OrderStatus
	updated, err := s.repo.Update(ctx, orderNumber, func(o *domain.Order) error {
		from = o.Status
		if !domain.CanTransition(o.Status, next) {
			return apperrors.NewConflictError(fmt.Sprintf(
				"cannot change order %s from %s to %s", o.OrderNumber, o.Status, next,
			))
		}
		at := s.now().UTC()
		o.Status = next
		o.StatusUpdatedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(from), string(next)).Inc()
	s.logger.Info("order status updated",
		zap.String("orderNumber", orderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	return updated, nil
}

// List returns all orders, newest first, optionally limited to one status.
func (s *StatusService) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return orders, nil
	}

	filtered := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

func (s *StatusService) Stats(ctx context.Context) (*Stats, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalOrders: len(orders),
		ByStatus:    make(map[domain.OrderStatus]int),
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
		if o.Status == domain.OrderStatusConfirmed || o.Status == domain.OrderStatusPreparing {
			stats.ActiveOrders++
		}
		if o.Status != domain.OrderStatusCancelled {
			stats.Revenue += o.Total
		}
	}
	return stats, nil
}

func StatusMessage(status domain.OrderStatus) string {
	switch status {
	case domain.OrderStatusConfirmed:
		return "Order has been accepted"
	case domain.OrderStatusPreparing:
		return "Order is now being prepared"
	case domain.OrderStatusDelivered:
		return "Order marked as delivered"
	case domain.OrderStatusCancelled:
		return "Order has been cancelled"
	default:
		return "Order status updated"
	}
}
