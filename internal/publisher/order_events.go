package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Ledger is the slice of the order store the publisher polls. Completed
// orders double as the outbox: published_at records delivery.
type Ledger interface {
	ListUnpublishedCompleted(ctx context.Context, limit int64) ([]domain.Order, error)
	MarkPublished(ctx context.Context, orderID string) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OrderEvents streams completed orders to Kafka for downstream
// consumers (royalty accounting, analytics). Publishing is at least
// once; consumers dedupe on order_id.
type OrderEvents struct {
	tick     time.Duration
	batch    int64
	ledger   Ledger
	writer   MessageWriter
	currency string
	log      *slog.Logger
}

func NewOrderEvents(ledger Ledger, writer MessageWriter, currency string, tick time.Duration, log *slog.Logger) *OrderEvents {
	if tick <= 0 {
		tick = time.Second
	}
	return &OrderEvents{
		tick:     tick,
		batch:    100,
		ledger:   ledger,
		writer:   writer,
		currency: currency,
		log:      log,
	}
}

// NewWriter builds the kafka writer the publisher normally runs with.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

type orderEventItem struct {
	TrackID  string          `json:"track_id"`
	Title    string          `json:"title"`
	Artist   string          `json:"artist"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

type orderEvent struct {
	OrderID         string           `json:"order_id"`
	UserID          string           `json:"user_id"`
	ProviderOrderID string           `json:"provider_order_id"`
	Total           decimal.Decimal  `json:"total"`
	Currency        string           `json:"currency"`
	Items           []orderEventItem `json:"items"`
	PaidAt          *time.Time       `json:"paid_at,omitempty"`
}

func (p *OrderEvents) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.publishBatch(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OrderEvents) publishBatch(ctx context.Context) {
	orders, err := p.ledger.ListUnpublishedCompleted(ctx, p.batch)
	if err != nil {
		p.log.Error("failed to fetch unpublished orders", "error", err)
		return
	}

	for i := range orders {
		order := &orders[i]

		if err := p.publish(ctx, order); err != nil {
			p.log.Error("failed to publish order event", "order_id", order.ID, "error", err)
			continue
		}

		if err := p.ledger.MarkPublished(ctx, order.ID); err != nil {
			p.log.Error("failed to mark order published", "order_id", order.ID, "error", err)
			continue
		}
	}
}

func (p *OrderEvents) publish(ctx context.Context, order *domain.Order) error {
	items := make([]orderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderEventItem{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	payload, err := json.Marshal(orderEvent{
		OrderID:         order.ID,
		UserID:          order.UserID,
		ProviderOrderID: order.ProviderOrderID,
		Total:           order.Total,
		Currency:        p.currency,
		Items:           items,
		PaidAt:          order.PaidAt,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(order.ID), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.completed")},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
