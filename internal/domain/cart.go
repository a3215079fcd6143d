package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	TrackID  string
	Title    string
	Artist   string
	Price    decimal.Decimal
	Quantity int64
	ImageURL string
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total is the exact sum of line subtotals. Orders snapshot this value
// once at creation and never recompute it.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
