package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"digitlens-go/domain/history"
	"digitlens-go/domain/recognition"
)

// DefaultHistoryCollection is the collection holding prediction records.
const DefaultHistoryCollection = "predictions"

// historyDocument is the MongoDB document structure for history records.
type historyDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ChatID        int64              `bson:"chat_id"`
	Digit         int                `bson:"digit"`
	Confidence    float64            `bson:"confidence"`
	Probabilities []float64          `bson:"probabilities"`
	Source        string             `bson:"source,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
}

// MongoHistoryRepository implements history.Repository using MongoDB.
type MongoHistoryRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoHistoryRepository creates a repository on the named collection.
func NewMongoHistoryRepository(db *MongoDB, collection string, logger *slog.Logger) *MongoHistoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if collection == "" {
		collection = DefaultHistoryCollection
	}
	return &MongoHistoryRepository{
		collection: db.Collection(collection),
		logger:     logger,
	}
}

// EnsureIndexes creates the chat/time index used by FindByChat.
func (r *MongoHistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create history index: %w", err)
	}
	return nil
}

// Insert stores a record and sets its ID to the generated ObjectID.
func (r *MongoHistoryRepository) Insert(ctx context.Context, rec *history.Record) error {
	result, err := r.collection.InsertOne(ctx, recordToDocument(rec))
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}

	r.logger.Debug("History record inserted", "id", rec.ID, "chat_id", rec.ChatID, "digit", rec.Digit)
	return nil
}

// FindByChat returns up to limit records of a chat, newest first.
func (r *MongoHistoryRepository) FindByChat(ctx context.Context, chatID int64, limit int) ([]*history.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []historyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	records := make([]*history.Record, len(docs))
	for i := range docs {
		records[i] = documentToRecord(&docs[i])
	}
	return records, nil
}

// DeleteByChat removes all records of a chat.
func (r *MongoHistoryRepository) DeleteByChat(ctx context.Context, chatID int64) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete history: %w", err)
	}

	r.logger.Info("History cleared", "chat_id", chatID, "count", result.DeletedCount)
	return result.DeletedCount, nil
}

// documentToRecord converts a MongoDB document to a domain Record.
func documentToRecord(doc *historyDocument) *history.Record {
	rec := &history.Record{
		ID:         doc.ID.Hex(),
		ChatID:     doc.ChatID,
		Digit:      doc.Digit,
		Confidence: doc.Confidence,
		Source:     doc.Source,
		CreatedAt:  doc.CreatedAt,
	}
	copy(rec.Probabilities[:], doc.Probabilities)
	return rec
}

// recordToDocument converts a domain Record to a MongoDB document.
func recordToDocument(rec *history.Record) *historyDocument {
	doc := &historyDocument{
		ChatID:        rec.ChatID,
		Digit:         rec.Digit,
		Confidence:    rec.Confidence,
		Probabilities: append(make([]float64, 0, recognition.NumClasses), rec.Probabilities[:]...),
		Source:        rec.Source,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(rec.ID); err == nil {
			doc.ID = oid
		}
	}
	return doc
}

// Ensure MongoHistoryRepository implements history.Repository
var _ history.Repository = (*MongoHistoryRepository)(nil)
