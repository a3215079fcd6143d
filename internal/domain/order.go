package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderFailed
}

// CanTransition reports whether an order may move from s to next. Terminal
// states never move again.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s != OrderPending {
		return false
	}
	return next == OrderCompleted || next == OrderFailed
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is a purchased line frozen at checkout time. Later catalog or
// cart edits never reach it.
type OrderItem struct {
	TrackID  string
	Title    string
	Artist   string
	Price    decimal.Decimal
	Quantity int64
	ImageURL string
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// PaymentResult is the provider's answer to a capture, kept on the order
// for support and dispute handling. Raw holds the provider payload as
// received.
type PaymentResult struct {
	CaptureID  string
	Status     string
	PayerEmail string
	Raw        json.RawMessage
}

type Order struct {
	ID              string
	UserID          string
	Items           []OrderItem
	Total           decimal.Decimal
	ProviderOrderID string
	Status          OrderStatus
	PaymentResult   *PaymentResult
	CreatedAt       time.Time
	PaidAt          *time.Time
}

// SnapshotItems copies cart lines into order lines. The copy is deep
// enough that mutating the source cart afterwards cannot alter the order.
func SnapshotItems(items []CartItem) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, it := range items {
		out[i] = OrderItem{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    it.Price,
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		}
	}
	return out
}

// ItemDescriptions renders one human line per purchased track, used for
// the payment provider's purchase description and the confirmation mail.
func ItemDescriptions(items []OrderItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title + " by " + it.Artist
	}
	return out
}
