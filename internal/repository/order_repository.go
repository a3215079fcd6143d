package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderItemDoc struct {
	TrackID  string `bson:"track_id"`
	Title    string `bson:"title"`
	Artist   string `bson:"artist"`
	Price    string `bson:"price"`
	Quantity int64  `bson:"quantity"`
	ImageURL string `bson:"image_url,omitempty"`
}

type paymentResultDoc struct {
	CaptureID  string `bson:"capture_id,omitempty"`
	Status     string `bson:"status"`
	PayerEmail string `bson:"payer_email,omitempty"`
	Raw        string `bson:"raw,omitempty"`
}

type orderDoc struct {
	ID              string            `bson:"_id"`
	UserID          string            `bson:"user_id"`
	Items           []orderItemDoc    `bson:"items"`
	Total           string            `bson:"total"`
	ProviderOrderID string            `bson:"provider_order_id"`
	Status          string            `bson:"status"`
	Payment         *paymentResultDoc `bson:"payment,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
	PaidAt          *time.Time        `bson:"paid_at,omitempty"`
	PublishedAt     *time.Time        `bson:"published_at,omitempty"`
}

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (m *mongoOrderRepository) CreatePending(ctx context.Context, userID string, items []domain.OrderItem, total decimal.Decimal, providerOrderID string) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "must not be empty")
	}
	if total.Sign() <= 0 {
		return nil, domain.NewValidationError("total_amount", "must be positive")
	}
	if providerOrderID == "" {
		return nil, domain.NewValidationError("provider_order_id", "must not be empty")
	}

	doc := orderDoc{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           toOrderItemDocs(items),
		Total:           total.String(),
		ProviderOrderID: providerOrderID,
		Status:          string(domain.OrderPending),
		CreatedAt:       time.Now(),
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateProviderOrder
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return fromOrderDoc(doc)
}

func (m *mongoOrderRepository) CreateCompleted(ctx context.Context, userID string, items []domain.OrderItem, total decimal.Decimal, providerOrderID string, result domain.PaymentResult) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "must not be empty")
	}
	if total.Sign() < 0 {
		return nil, domain.NewValidationError("total_amount", "must not be negative")
	}
	if providerOrderID == "" {
		return nil, domain.NewValidationError("provider_order_id", "must not be empty")
	}

	now := time.Now()
	doc := orderDoc{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           toOrderItemDocs(items),
		Total:           total.String(),
		ProviderOrderID: providerOrderID,
		Status:          string(domain.OrderCompleted),
		Payment:         toPaymentResultDoc(result),
		CreatedAt:       now,
		PaidAt:          &now,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateProviderOrder
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return fromOrderDoc(doc)
}

// Finalize is the only write path from pending to completed. The filter
// carries the status, so concurrent captures race on a single document
// update and exactly one of them wins.
func (m *mongoOrderRepository) Finalize(ctx context.Context, providerOrderID, userID string, result domain.PaymentResult) (*domain.Order, error) {
	now := time.Now()

	filter := bson.M{
		"provider_order_id": providerOrderID,
		"user_id":           userID,
		"status":            string(domain.OrderPending),
	}
	update := bson.M{
		"$set": bson.M{
			"status":  string(domain.OrderCompleted),
			"paid_at": now,
			"payment": toPaymentResultDoc(result),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDoc
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return fromOrderDoc(doc)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to finalize order: %w", err)
	}

	// No pending match. Distinguish an already terminal order from a
	// provider id we have never seen.
	lookup := bson.M{"provider_order_id": providerOrderID, "user_id": userID}
	err = m.collection.FindOne(ctx, lookup).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up order after finalize miss: %w", err)
	}

	return nil, ErrAlreadyFinalized
}

func (m *mongoOrderRepository) MarkFailed(ctx context.Context, providerOrderID, userID string) error {
	filter := bson.M{
		"provider_order_id": providerOrderID,
		"user_id":           userID,
		"status":            string(domain.OrderPending),
	}
	update := bson.M{
		"$set": bson.M{"status": string(domain.OrderFailed)},
	}

	// Zero matches means the order is missing or already terminal, both
	// fine for a failure mark.
	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark order failed: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var doc orderDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return fromOrderDoc(doc)
}

func (m *mongoOrderRepository) GetByProviderID(ctx context.Context, providerOrderID, userID string) (*domain.Order, error) {
	filter := bson.M{"provider_order_id": providerOrderID, "user_id": userID}

	var doc orderDoc
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by provider id: %w", err)
	}
	return fromOrderDoc(doc)
}

func (m *mongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeOrders(ctx, cursor)
}

func (m *mongoOrderRepository) ListUnpublishedCompleted(ctx context.Context, limit int64) ([]domain.Order, error) {
	filter := bson.M{
		"status":       string(domain.OrderCompleted),
		"published_at": bson.M{"$exists": false},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpublished orders: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeOrders(ctx, cursor)
}

func (m *mongoOrderRepository) MarkPublished(ctx context.Context, orderID string) error {
	update := bson.M{"$set": bson.M{"published_at": time.Now()}}

	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": orderID}, update); err != nil {
		return fmt.Errorf("failed to mark order published: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider_order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func decodeOrders(ctx context.Context, cursor *mongo.Cursor) ([]domain.Order, error) {
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := fromOrderDoc(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func toOrderItemDocs(items []domain.OrderItem) []orderItemDoc {
	docs := make([]orderItemDoc, len(items))
	for i, it := range items {
		docs[i] = orderItemDoc{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    it.Price.String(),
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		}
	}
	return docs
}

func toPaymentResultDoc(result domain.PaymentResult) *paymentResultDoc {
	return &paymentResultDoc{
		CaptureID:  result.CaptureID,
		Status:     result.Status,
		PayerEmail: result.PayerEmail,
		Raw:        string(result.Raw),
	}
}

func fromOrderDoc(doc orderDoc) (*domain.Order, error) {
	total, err := decimal.NewFromString(doc.Total)
	if err != nil {
		return nil, fmt.Errorf("parse total %q of order %s: %w", doc.Total, doc.ID, err)
	}

	items := make([]domain.OrderItem, len(doc.Items))
	for i, it := range doc.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q of track %s: %w", it.Price, it.TrackID, err)
		}
		items[i] = domain.OrderItem{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    price,
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		}
	}

	order := &domain.Order{
		ID:              doc.ID,
		UserID:          doc.UserID,
		Items:           items,
		Total:           total,
		ProviderOrderID: doc.ProviderOrderID,
		Status:          domain.OrderStatus(doc.Status),
		CreatedAt:       doc.CreatedAt,
		PaidAt:          doc.PaidAt,
	}
	if doc.Payment != nil {
		order.PaymentResult = &domain.PaymentResult{
			CaptureID:  doc.Payment.CaptureID,
			Status:     doc.Payment.Status,
			PayerEmail: doc.Payment.PayerEmail,
			Raw:        json.RawMessage(doc.Payment.Raw),
		}
	}
	return order, nil
}
