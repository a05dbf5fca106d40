package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/consciousday/backend/internal/models"
)

// MongoStore archives generation attempts in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("insights")}
}

// EnsureIndexes creates the (user_id, created_at) index used by ListByUser.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, rec *models.InsightRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent attempts, newest first.
func (s *MongoStore) ListByUser(ctx context.Context, userID string, limit int64) ([]models.InsightRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.InsightRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteByUser drops every archived attempt of a user.
func (s *MongoStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("mongo delete: %w", err)
	}
	return res.DeletedCount, nil
}
