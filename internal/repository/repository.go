package repository

import (
	"context"
	"errors"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrTrackNotFound = errors.New("track not found")

	// ErrAlreadyFinalized means the order left the pending state earlier;
	// the caller should re-read instead of retrying the transition.
	ErrAlreadyFinalized = errors.New("order already finalized")

	// ErrDuplicateProviderOrder guards the unique provider_order_id index.
	ErrDuplicateProviderOrder = errors.New("provider order id already used")
)

// CartRepository persists one open cart per user.
type CartRepository interface {
	// Ensure returns the user's cart, creating an empty persisted one on
	// first access.
	Ensure(ctx context.Context, userID string) (*domain.Cart, error)
	// Replace overwrites the cart contents wholesale.
	Replace(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error)
	// Clear empties the cart but keeps the document. Idempotent.
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
	CreateIndexes(ctx context.Context) error
}

// OrderRepository is the checkout ledger. Completed and failed orders are
// immutable; only Finalize and MarkFailed move an order out of pending,
// and only once.
type OrderRepository interface {
	CreatePending(ctx context.Context, userID string, items []domain.OrderItem, total decimal.Decimal, providerOrderID string) (*domain.Order, error)
	// CreateCompleted writes a zero-total order directly in completed
	// state, bypassing the payment leg. CreatePending's positive-total
	// guard stays strict because of it.
	CreateCompleted(ctx context.Context, userID string, items []domain.OrderItem, total decimal.Decimal, providerOrderID string, result domain.PaymentResult) (*domain.Order, error)
	// Finalize atomically moves the matching pending order to completed
	// and stores the capture result. ErrAlreadyFinalized when the order
	// is already terminal, ErrOrderNotFound when it does not exist.
	Finalize(ctx context.Context, providerOrderID, userID string, result domain.PaymentResult) (*domain.Order, error)
	// MarkFailed moves a pending order to failed. No-op when the order
	// is missing or already terminal.
	MarkFailed(ctx context.Context, providerOrderID, userID string) error
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetByProviderID(ctx context.Context, providerOrderID, userID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// ListUnpublishedCompleted feeds the order event publisher.
	ListUnpublishedCompleted(ctx context.Context, limit int64) ([]domain.Order, error)
	MarkPublished(ctx context.Context, orderID string) error
	CreateIndexes(ctx context.Context) error
}

// TrackRepository reads catalog entries. Catalog management happens in a
// separate admin surface, this side only resolves purchases.
type TrackRepository interface {
	GetByID(ctx context.Context, trackID string) (*domain.Track, error)
}
