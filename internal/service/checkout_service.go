package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/paypal"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
	"github.com/Nitinjr812/Waslerrfields-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CartAccess is the slice of the cart service checkout needs.
type CartAccess interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

// PaymentGateway creates and captures orders with the payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, total decimal.Decimal, description string) (paypal.ProviderOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (paypal.CaptureResult, error)
}

// LinkResolver turns a completed order into signed download links.
type LinkResolver interface {
	Links(ctx context.Context, order *domain.Order) ([]domain.DownloadLink, error)
}

// ConfirmationSender delivers the post-purchase email.
type ConfirmationSender interface {
	OrderConfirmation(ctx context.Context, identity auth.Identity, order *domain.Order, links []domain.DownloadLink) error
}

// CheckoutIntent is the result of starting a checkout. For paid carts
// Completed is false and ApprovalURL points at the provider; free carts
// complete immediately and carry their download links.
type CheckoutIntent struct {
	Order       *domain.Order
	ApprovalURL string
	Links       []domain.DownloadLink
	Completed   bool
}

// CaptureOutcome is the result of capturing an approved payment.
// Replayed marks a capture that had already been processed; such calls
// return the stored order and never re-issue links.
type CaptureOutcome struct {
	Order    *domain.Order
	Links    []domain.DownloadLink
	Replayed bool
}

// CheckoutService drives a cart through payment into a finalized order.
type CheckoutService struct {
	carts    CartAccess
	ledger   repository.OrderRepository
	gateway  PaymentGateway
	links    LinkResolver
	notifier ConfirmationSender
	metrics  *metrics.CheckoutMetrics
	log      *slog.Logger
}

func NewCheckoutService(carts CartAccess, ledger repository.OrderRepository, gateway PaymentGateway, links LinkResolver, notifier ConfirmationSender, m *metrics.CheckoutMetrics, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		ledger:   ledger,
		gateway:  gateway,
		links:    links,
		notifier: notifier,
		metrics:  m,
		log:      log,
	}
}

// CreateOrder snapshots the cart into a pending order and registers it
// with the payment provider. A cart totaling zero skips the provider
// entirely and completes on the spot.
func (s *CheckoutService) CreateOrder(ctx context.Context, identity auth.Identity) (*CheckoutIntent, error) {
	cart, err := s.carts.GetCart(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	total := cart.Total()
	if total.IsNegative() {
		return nil, ErrInvalidAmount
	}

	items := domain.SnapshotItems(cart.Items)

	if total.IsZero() {
		return s.createFreeOrder(ctx, identity, items)
	}

	description := strings.Join(domain.ItemDescriptions(items), ", ")
	pOrder, err := s.gateway.CreateOrder(ctx, total, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider order: %w", err)
	}

	order, err := s.ledger.CreatePending(ctx, identity.UserID, items, total, pOrder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record pending order: %w", err)
	}

	s.metrics.OrdersCreated.WithLabelValues("paid").Inc()
	s.log.Info("checkout started",
		"order_id", order.ID, "provider_order_id", pOrder.ID, "total", total.StringFixed(2))

	return &CheckoutIntent{Order: order, ApprovalURL: pOrder.ApprovalURL}, nil
}

// createFreeOrder completes a zero-total checkout without touching the
// payment provider. The synthetic provider id keeps the ledger's
// uniqueness and lookup machinery uniform across both paths.
func (s *CheckoutService) createFreeOrder(ctx context.Context, identity auth.Identity, items []domain.OrderItem) (*CheckoutIntent, error) {
	result := domain.PaymentResult{Status: "FREE"}
	providerOrderID := "free-" + uuid.NewString()

	order, err := s.ledger.CreateCompleted(ctx, identity.UserID, items, decimal.Zero, providerOrderID, result)
	if err != nil {
		return nil, fmt.Errorf("failed to record free order: %w", err)
	}

	s.metrics.OrdersCreated.WithLabelValues("free").Inc()
	s.log.Info("free checkout completed", "order_id", order.ID)

	links := s.finishFulfillment(ctx, identity, order)
	return &CheckoutIntent{Order: order, Links: links, Completed: true}, nil
}

// CaptureOrder settles an approved payment and finalizes the matching
// pending order. Captures that were already settled return the stored
// order untouched.
func (s *CheckoutService) CaptureOrder(ctx context.Context, identity auth.Identity, providerOrderID string) (*CaptureOutcome, error) {
	if providerOrderID == "" {
		return nil, domain.NewValidationError("provider_order_id", "must not be empty")
	}

	timer := prometheus.NewTimer(s.metrics.CaptureSeconds)
	defer timer.ObserveDuration()

	result, err := s.gateway.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		s.metrics.Captures.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to capture provider order: %w", err)
	}

	if !result.Completed() {
		if err := s.ledger.MarkFailed(ctx, providerOrderID, identity.UserID); err != nil {
			s.log.Error("failed to mark order failed",
				"provider_order_id", providerOrderID, "error", err)
		}
		s.metrics.Captures.WithLabelValues("incomplete").Inc()
		return nil, &PaymentIncompleteError{ProviderOrderID: providerOrderID, Status: result.Status}
	}

	payment := domain.PaymentResult{
		CaptureID:  result.CaptureID,
		Status:     result.Status,
		PayerEmail: result.PayerEmail,
		Raw:        result.Raw,
	}

	order, err := s.ledger.Finalize(ctx, providerOrderID, identity.UserID, payment)
	if errors.Is(err, repository.ErrAlreadyFinalized) {
		existing, lookupErr := s.ledger.GetByProviderID(ctx, providerOrderID, identity.UserID)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to load finalized order: %w", lookupErr)
		}
		s.metrics.Captures.WithLabelValues("replayed").Inc()
		s.log.Info("capture replayed, returning settled order",
			"order_id", existing.ID, "provider_order_id", providerOrderID)
		return &CaptureOutcome{Order: existing, Replayed: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to finalize order: %w", err)
	}

	s.metrics.Captures.WithLabelValues("completed").Inc()
	s.log.Info("payment captured",
		"order_id", order.ID, "provider_order_id", providerOrderID, "capture_id", result.CaptureID)

	links := s.finishFulfillment(ctx, identity, order)
	return &CaptureOutcome{Order: order, Links: links}, nil
}

// finishFulfillment runs the best-effort tail of a completed checkout:
// empty the cart, sign the download links, send the confirmation. The
// order is already settled, so nothing here is allowed to fail the
// request.
func (s *CheckoutService) finishFulfillment(ctx context.Context, identity auth.Identity, order *domain.Order) []domain.DownloadLink {
	if _, err := s.carts.ClearCart(ctx, identity.UserID); err != nil {
		s.log.Error("failed to clear cart after checkout",
			"order_id", order.ID, "user_id", identity.UserID, "error", err)
	}

	links, err := s.links.Links(ctx, order)
	if err != nil {
		s.log.Error("failed to resolve download links", "order_id", order.ID, "error", err)
		links = nil
	}

	if err := s.notifier.OrderConfirmation(ctx, identity, order, links); err != nil {
		s.log.Error("failed to send order confirmation", "order_id", order.ID, "error", err)
	}

	return links
}
