package checkout

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"quickorder/internal/docstore"
	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/metrics"
	"quickorder/internal/session"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

const MaxProofSize = 10 << 20

const (
	reasonUnauthenticated = "unauthenticated"
	reasonCartEmpty       = "cart_empty"
	reasonBelowMinimum    = "below_minimum"
	reasonAddress         = "address"
	reasonPaymentMethod   = "payment_method"
	reasonProof           = "proof"
)

type CartStore interface {
	Load(ctx context.Context, clientID string) (domain.Cart, error)
	Clear(ctx context.Context, clientID string) error
}

type OrderLog interface {
	Prepend(ctx context.Context, order domain.Order) error
}

type DocumentAdder interface {
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
}

type PaymentProcessor interface {
	Process(ctx context.Context, onStep func(Step)) error
}

// Proof describes an uploaded proof-of-payment image. Only its metadata is
// kept; the image itself is not stored.
type Proof struct {
	Filename    string
	ContentType string
	Size        int64
}

type PlaceRequest struct {
	PaymentMethod       string
	DeliveryAddress     string
	ContactNumber       string
	SpecialInstructions string
	Proof               *Proof
}

type Handoff struct {
	Items     []domain.CartLine `json:"items"`
	Totals    domain.Totals     `json:"totals"`
	StartedAt time.Time         `json:"startedAt"`
}

// Result is returned once the order is recorded. CartCleared is false when
// the cart still holds the ordered lines, in which case Warning tells the
// customer to empty it before ordering again.
type Result struct {
	Order       domain.Order `json:"order"`
	States      []State      `json:"states"`
	Steps       []string     `json:"steps"`
	Message     string       `json:"message"`
	CartCleared bool         `json:"cartCleared"`
	Warning     string       `json:"warning,omitempty"`
}

type Service struct {
	cart      CartStore
	orders    OrderLog
	docs      DocumentAdder
	store     storage.Store
	processor PaymentProcessor
	metrics   *metrics.Metrics
	now       func() time.Time
	randIntn  func(n int) int
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewService(cart CartStore, orders OrderLog, docs DocumentAdder, store storage.Store, processor PaymentProcessor, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		cart:      cart,
		orders:    orders,
		docs:      docs,
		store:     store,
		processor: processor,
		metrics:   m,
		now:       time.Now,
		randIntn:  rand.IntN,
		logger:    logger,
		inFlight:  make(map[string]bool),
	}
}

// Start hands the cart over to checkout. Only signed-in users may check out.
func (s *Service) Start(ctx context.Context, sess session.Session) (*Handoff, error) {
	if !sess.Authenticated() {
		s.reject(reasonUnauthenticated)
		return nil, apperrors.NewUnauthorizedError("Please create an account or sign in to place an order")
	}

	c, err := s.cart.Load(ctx, sess.ClientID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		s.reject(reasonCartEmpty)
		return nil, apperrors.NewValidationError("Your cart is empty!", apperrors.ValidationDetail{
			Field:   "cart",
			Message: "cart empty",
		})
	}

	totals := c.Totals()
	if !totals.MeetsMinimum() {
		s.reject(reasonBelowMinimum)
		return nil, belowMinimum()
	}

	started := s.now().UTC()
	if err := storage.SetJSON(ctx, s.store, storage.CheckoutCartKey(sess.ClientID), c.Lines); err != nil {
		return nil, apperrors.NewInternalError("saving checkout cart", err)
	}
	if err := s.store.Set(ctx, storage.CheckoutTotalKey(sess.ClientID), strconv.FormatFloat(totals.Total, 'f', -1, 64)); err != nil {
		return nil, apperrors.NewInternalError("saving checkout total", err)
	}
	if err := s.store.Set(ctx, storage.CheckoutStartedKey(sess.ClientID), started.Format(time.RFC3339Nano)); err != nil {
		return nil, apperrors.NewInternalError("saving checkout start", err)
	}

	return &Handoff{Items: c.Lines, Totals: totals, StartedAt: started}, nil
}

// Place validates the live cart and the delivery form, runs the payment steps
// and records the order. Nothing is written unless every step succeeds.
func (s *Service) Place(ctx context.Context, sess session.Session, req PlaceRequest) (*Result, error) {
	if !s.acquire(sess.ClientID) {
		return nil, apperrors.NewConflictError("A checkout is already in progress")
	}
	defer s.release(sess.ClientID)

	logger := s.logger.With(zap.String("clientId", sess.ClientID))
	flow := NewFlow()
	flow.advance(StateValidating)

	c, err := s.cart.Load(ctx, sess.ClientID)
	if err != nil {
		flow.advance(StateFailed)
		logger.Warn("loading cart for checkout", zap.Error(err), zap.Strings("states", stateNames(flow.History())))
		return nil, err
	}
	if err := s.validate(c, req); err != nil {
		flow.advance(StateFailed)
		logger.Info("checkout rejected", zap.Error(err), zap.Strings("states", stateNames(flow.History())))
		return nil, err
	}

	flow.advance(StateProcessing)
	var steps []string
	err = s.processor.Process(ctx, func(step Step) {
		steps = append(steps, step.Message)
		logger.Debug("payment step", zap.String("step", step.Message))
	})
	if err != nil {
		flow.advance(StateFailed)
		logger.Warn("payment failed", zap.Error(err), zap.Strings("states", stateNames(flow.History())))
		return nil, apperrors.NewInternalError("Payment failed. Please try again.", err)
	}

	order := s.buildOrder(sess.ClientID, c, req)
	if err := s.orders.Prepend(ctx, order); err != nil {
		flow.advance(StateFailed)
		return nil, apperrors.NewInternalError("saving order", err)
	}

	cleared := s.clearCart(ctx, logger, sess.ClientID, order.OrderNumber)
	keys := []string{
		storage.CheckoutCartKey(sess.ClientID),
		storage.CheckoutTotalKey(sess.ClientID),
		storage.CheckoutStartedKey(sess.ClientID),
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		logger.Warn("clearing checkout hand-off", zap.Error(err))
	}

	s.metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	if sess.Authenticated() {
		s.mirror(ctx, logger, *sess.User, order)
	}

	flow.advance(StateSucceeded)
	logger.Info("order placed",
		zap.String("orderNumber", order.OrderNumber),
		zap.Float64("total", order.Total),
		zap.String("paymentMethod", string(order.PaymentMethod)),
	)

	res := &Result{
		Order:       order,
		States:      flow.History(),
		Steps:       steps,
		Message:     "Order placed successfully!",
		CartCleared: cleared,
	}
	if !cleared {
		res.Warning = "Your order was placed but your cart could not be emptied. Please clear it before ordering again."
	}
	return res, nil
}

// clearCart empties the cart once the order is saved, trying twice.
func (s *Service) clearCart(ctx context.Context, logger *zap.Logger, clientID, orderNumber string) bool {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.cart.Clear(ctx, clientID); err == nil {
			return true
		}
	}
	logger.Error("clearing cart after order", zap.String("orderNumber", orderNumber), zap.Error(err))
	return false
}

func (s *Service) validate(c domain.Cart, req PlaceRequest) error {
	if c.IsEmpty() {
		s.reject(reasonCartEmpty)
		return apperrors.NewValidationError("cart empty", apperrors.ValidationDetail{
			Field:   "cart",
			Message: "Your cart is empty!",
		})
	}

	if !c.Totals().MeetsMinimum() {
		s.reject(reasonBelowMinimum)
		return belowMinimum()
	}

	if strings.TrimSpace(req.DeliveryAddress) == "" {
		s.reject(reasonAddress)
		return fieldError("deliveryAddress", "Please enter your delivery address")
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		s.reject(reasonPaymentMethod)
		return fieldError("paymentMethod", "Please select a payment method")
	}

	if method.RequiresProof() {
		if req.Proof == nil {
			s.reject(reasonProof)
			if method == domain.PaymentGCash {
				return fieldError("paymentProof", "Please upload your GCash payment proof image")
			}
			return fieldError("paymentProof", "Please upload your payment proof image")
		}
		if !strings.HasPrefix(req.Proof.ContentType, "image/") {
			s.reject(reasonProof)
			return fieldError("paymentProof", "Please select a valid image file")
		}
		if req.Proof.Size > MaxProofSize {
			s.reject(reasonProof)
			return fieldError("paymentProof", "File size must be less than 10MB")
		}
	}

	return nil
}

func (s *Service) buildOrder(clientID string, c domain.Cart, req PlaceRequest) domain.Order {
	now := s.now().UTC()
	totals := c.Totals()
	return domain.Order{
		OrderNumber:         domain.GenerateOrderNumber(now, s.randIntn),
		OwnerID:             clientID,
		Items:               domain.ItemsFromCart(c.Lines),
		Subtotal:            totals.Subtotal,
		DeliveryFee:         totals.DeliveryFee,
		Tax:                 totals.Tax,
		Total:               totals.Total,
		PaymentMethod:       domain.PaymentMethod(req.PaymentMethod),
		DeliveryAddress:     strings.TrimSpace(req.DeliveryAddress),
		ContactNumber:       strings.TrimSpace(req.ContactNumber),
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
		Timestamp:           now,
		Status:              domain.OrderStatusPending,
	}
}

// mirror writes a reduced copy of the order to the orders collection. A
// failure is logged and counted and never reaches the caller.
func (s *Service) mirror(ctx context.Context, logger *zap.Logger, user domain.User, order domain.Order) {
	items := make([]map[string]any, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]any{
			"name":     it.Name,
			"price":    it.Price,
			"quantity": it.Quantity,
			"image":    it.Image,
		})
	}

	id, err := s.docs.Add(ctx, docstore.CollectionOrders, map[string]any{
		"userId":    user.UID,
		"userEmail": user.Email,
		"items":     items,
		"total":     order.Total,
		"timestamp": order.Timestamp,
		"status":    string(domain.OrderStatusPending),
	})
	if err != nil {
		s.metrics.MirrorFailures.Inc()
		logger.Warn("mirroring order failed", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
		return
	}
	logger.Debug("order mirrored", zap.String("orderNumber", order.OrderNumber), zap.String("documentId", id))
}

func (s *Service) reject(reason string) {
	s.metrics.CheckoutRejected.WithLabelValues(reason).Inc()
}

func (s *Service) acquire(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[clientID] {
		return false
	}
	s.inFlight[clientID] = true
	return true
}

func (s *Service) release(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, clientID)
}

func belowMinimum() error {
	msg := fmt.Sprintf("Minimum order amount is %s%g", domain.CurrencySymbol, domain.MinOrderAmount)
	return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
		Field:   "total",
		Message: msg,
	})
}

func fieldError(field, msg string) error {
	return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
		Field:   field,
		Message: msg,
	})
}

func stateNames(states []State) []string {
	out := make([]string, 0, len(states))
	for _, st := range states {
		out = append(out, string(st))
	}
	return out
}
