package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Prices live in Mongo as decimal strings; shopspring decimals have no
// native BSON codec and floats would drift.
type cartItemDoc struct {
	TrackID  string `bson:"track_id"`
	Title    string `bson:"title"`
	Artist   string `bson:"artist"`
	Price    string `bson:"price"`
	Quantity int64  `bson:"quantity"`
	ImageURL string `bson:"image_url,omitempty"`
}

type cartDoc struct {
	UserID    string        `bson:"user_id"`
	Items     []cartItemDoc `bson:"items"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoCartRepository) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"items":      []cartItemDoc{},
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc cartDoc
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// lost the upsert race against a concurrent first access
		err = m.collection.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure cart: %w", err)
	}

	return fromCartDoc(doc)
}

func (m *mongoCartRepository) Replace(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":      toCartItemDocs(items),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc cartDoc
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = m.collection.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace cart: %w", err)
	}

	return fromCartDoc(doc)
}

func (m *mongoCartRepository) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	return m.Replace(ctx, userID, nil)
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // abandoned carts expire after 90 days
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func toCartItemDocs(items []domain.CartItem) []cartItemDoc {
	docs := make([]cartItemDoc, len(items))
	for i, it := range items {
		docs[i] = cartItemDoc{
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

func fromCartDoc(doc cartDoc) (*domain.Cart, error) {
	items := make([]domain.CartItem, len(doc.Items))
	for i, it := range doc.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q of track %s: %w", it.Price, it.TrackID, err)
		}
		items[i] = domain.CartItem{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    price,
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		}
	}

	return &domain.Cart{
		UserID:    doc.UserID,
		Items:     items,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
