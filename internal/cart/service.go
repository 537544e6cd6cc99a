package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/metrics"
	"quickorder/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// View is the cart as returned to callers, with totals already derived.
type View struct {
	Items        []domain.CartLine `json:"items"`
	ItemCount    int               `json:"itemCount"`
	Totals       domain.Totals     `json:"totals"`
	MeetsMinimum bool              `json:"meetsMinimum"`
}

type MutationResult struct {
	Cart          View             `json:"cart"`
	Line          *domain.CartLine `json:"line,omitempty"`
	Message       string           `json:"message"`
	UndoToken     string           `json:"undoToken,omitempty"`
	UndoExpiresAt *time.Time       `json:"undoExpiresAt,omitempty"`
	Clamped       bool             `json:"clamped,omitempty"`
}

type OrderFinder interface {
	Find(ctx context.Context, orderNumber string) (*domain.Order, error)
}

// Service owns the per-client cart snapshot. Every operation reads the whole
// cart, mutates it and writes it back while holding the service lock.
type Service struct {
	store   storage.Store
	undo    *UndoRegistry
	orders  OrderFinder
	metrics *metrics.Metrics
	maxAge  time.Duration
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger

	mu sync.Mutex
}

func NewService(store storage.Store, undo *UndoRegistry, orders OrderFinder, m *metrics.Metrics, maxAge time.Duration, logger *zap.Logger) *Service {
	if maxAge <= 0 {
		maxAge = storage.DefaultCartMaxAge
	}
	return &Service{
		store:   store,
		undo:    undo,
		orders:  orders,
		metrics: m,
		maxAge:  maxAge,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		logger:  logger,
	}
}

func (s *Service) Get(ctx context.Context, clientID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	return viewOf(c), nil
}

// Load returns the raw cart for callers that need the lines themselves, such
// as checkout.
func (s *Service) Load(ctx context.Context, clientID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, clientID)
}

func (s *Service) Add(ctx context.Context, clientID, name string, price float64, image string) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	line, err := c.Add(name, price, image, s.newID(), s.now().UTC())
	switch {
	case errors.Is(err, domain.ErrInvalidProduct):
		return nil, apperrors.NewValidationError("Invalid product data", productDetails(name, price)...)
	case errors.Is(err, domain.ErrQuantityLimit):
		return nil, apperrors.NewConflictError(fmt.Sprintf("Maximum %d items allowed per product", domain.MaxQuantityPerItem))
	case err != nil:
		return nil, err
	}

	if err := s.save(ctx, clientID, c); err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues("add").Inc()

	return &MutationResult{
		Cart:    viewOf(c),
		Line:    &line,
		Message: fmt.Sprintf("%s added to cart!", name),
	}, nil
}

func (s *Service) Remove(ctx context.Context, clientID, name string) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	removed, err := c.Remove(name)
	if err != nil {
		return nil, apperrors.NewNotFoundError("Item not found in cart")
	}

	if err := s.save(ctx, clientID, c); err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues("remove").Inc()

	return s.removedResult(clientID, c, removed), nil
}

// SetQuantity applies delta to a line. Dropping to zero removes the line with
// an undo token; going above the limit clamps and flags the result.
func (s *Service) SetQuantity(ctx context.Context, clientID, name string, delta int) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	change, err := c.SetQuantity(name, delta)
	if err != nil {
		return nil, apperrors.NewNotFoundError("Item not found in cart")
	}

	if err := s.save(ctx, clientID, c); err != nil {
		return nil, err
	}

	if change.Removed != nil {
		s.metrics.CartMutations.WithLabelValues("remove").Inc()
		return s.removedResult(clientID, c, *change.Removed), nil
	}

	s.metrics.CartMutations.WithLabelValues("quantity").Inc()
	res := &MutationResult{
		Cart:    viewOf(c),
		Line:    &change.Line,
		Message: "Quantity updated",
		Clamped: change.Clamped,
	}
	if change.Clamped {
		res.Message = fmt.Sprintf("Maximum %d items allowed", domain.MaxQuantityPerItem)
	}
	return res, nil
}

func (s *Service) Undo(ctx context.Context, clientID, token string) (*MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.undo.Take(clientID, token)
	switch {
	case errors.Is(err, ErrUndoExpired):
		return nil, apperrors.NewConflictError("Undo is no longer available")
	case err != nil:
		return nil, apperrors.NewNotFoundError("Undo is no longer available")
	}

	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := c.Restore(removed); err != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("%s is already in the cart", removed.Line.Name))
	}

	if err := s.save(ctx, clientID, c); err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues("undo").Inc()

	line := removed.Line
	return &MutationResult{
		Cart:    viewOf(c),
		Line:    &line,
		Message: fmt.Sprintf("%s restored to cart", line.Name),
	}, nil
}

func (s *Service) Clear(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, clientID, domain.Cart{}); err != nil {
		return err
	}
	s.metrics.CartMutations.WithLabelValues("clear").Inc()
	return nil
}

// Reorder merges the items of one of the client's earlier orders into the
// cart.
func (s *Service) Reorder(ctx context.Context, clientID, orderNumber string) (*MutationResult, error) {
	order, err := s.orders.Find(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != clientID {
		return nil, apperrors.NewNotFoundError("Order not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	c.Merge(order.Items, s.newID, s.now().UTC())

	if err := s.save(ctx, clientID, c); err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues("reorder").Inc()

	return &MutationResult{
		Cart:    viewOf(c),
		Message: fmt.Sprintf("%d items added to cart!", len(order.Items)),
	}, nil
}

func (s *Service) removedResult(clientID string, c domain.Cart, removed domain.RemovedLine) *MutationResult {
	token, expiresAt := s.undo.Register(clientID, removed)
	line := removed.Line
	return &MutationResult{
		Cart:          viewOf(c),
		Line:          &line,
		Message:       fmt.Sprintf("%s removed from cart", line.Name),
		UndoToken:     token,
		UndoExpiresAt: &expiresAt,
	}
}

// load reads the snapshot. A cart whose timestamp is missing, unreadable or
// older than maxAge is discarded, as is one that does not parse.
func (s *Service) load(ctx context.Context, clientID string) (domain.Cart, error) {
	var lines []domain.CartLine
	found, err := storage.GetJSON(ctx, s.store, storage.CartKey(clientID), &lines)
	if err != nil {
		var corrupted *storage.CorruptedError
		if !errors.As(err, &corrupted) {
			return domain.Cart{}, apperrors.NewInternalError("loading cart", err)
		}
		s.logger.Warn("discarding corrupted cart", zap.String("clientId", clientID), zap.Error(err))
		return domain.Cart{}, s.discard(ctx, clientID)
	}
	if !found {
		return domain.Cart{}, nil
	}

	raw, _, err := s.store.Get(ctx, storage.CartUpdatedKey(clientID))
	if err != nil {
		return domain.Cart{}, apperrors.NewInternalError("loading cart timestamp", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil || s.now().Sub(updated) >= s.maxAge {
		s.logger.Info("discarding stale cart", zap.String("clientId", clientID), zap.String("lastUpdated", raw))
		return domain.Cart{}, s.discard(ctx, clientID)
	}

	return domain.Cart{Lines: lines}, nil
}

func (s *Service) save(ctx context.Context, clientID string, c domain.Cart) error {
	lines := c.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	if err := storage.SetJSON(ctx, s.store, storage.CartKey(clientID), lines); err != nil {
		return apperrors.NewInternalError("saving cart", err)
	}
	if err := s.store.Set(ctx, storage.CartUpdatedKey(clientID), s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return apperrors.NewInternalError("saving cart timestamp", err)
	}
	return nil
}

func (s *Service) discard(ctx context.Context, clientID string) error {
	if err := s.store.Delete(ctx, storage.CartKey(clientID), storage.CartUpdatedKey(clientID)); err != nil {
		return apperrors.NewInternalError("discarding cart", err)
	}
	return nil
}

func viewOf(c domain.Cart) View {
	items := c.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	totals := c.Totals()
	return View{
		Items:        items,
		ItemCount:    c.ItemCount(),
		Totals:       totals,
		MeetsMinimum: totals.MeetsMinimum(),
	}
}

func productDetails(name string, price float64) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail
	if strings.TrimSpace(name) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if price <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "price", Message: "price must be greater than 0"})
	}
	return details
}
