package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type trackDoc struct {
	ID       string `bson:"_id"`
	Title    string `bson:"title"`
	Artist   string `bson:"artist"`
	Price    string `bson:"price"`
	ImageURL string `bson:"image_url,omitempty"`
	AudioKey string `bson:"audio_key,omitempty"`
}

type mongoTrackRepository struct {
	collection *mongo.Collection
}

func NewTrackRepository(db *mongo.Database) TrackRepository {
	return &mongoTrackRepository{
		collection: db.Collection("tracks"),
	}
}

func (m *mongoTrackRepository) GetByID(ctx context.Context, trackID string) (*domain.Track, error) {
	var doc trackDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": trackID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	price, err := decimal.NewFromString(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q of track %s: %w", doc.Price, doc.ID, err)
	}

	return &domain.Track{
		ID:       doc.ID,
		Title:    doc.Title,
		Artist:   doc.Artist,
		Price:    price,
		ImageURL: doc.ImageURL,
		AudioKey: doc.AudioKey,
	}, nil
}
