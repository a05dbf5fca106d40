package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InsightRecord is one generation attempt stored in MongoDB. Failed attempts
// are kept too, with Error set and Response empty.
type InsightRecord struct {
	ID         primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	UserID     string             `json:"user_id"     bson:"user_id"`
	Date       string             `json:"date"        bson:"date"`
	Provider   string             `json:"provider"    bson:"provider"`
	Model      string             `json:"model"       bson:"model"`
	Response   string             `json:"response"    bson:"response"`
	Error      string             `json:"error"       bson:"error,omitempty"`
	DurationMS int64              `json:"duration_ms" bson:"duration_ms"`
	CreatedAt  time.Time          `json:"created_at"  bson:"created_at"`
}
