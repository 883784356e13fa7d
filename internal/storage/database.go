package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

// MongoStorage upserts table rows into a MongoDB collection keyed by url,
// so repeated daily runs refresh records instead of duplicating them.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	count      int
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(ctx context.Context, t *Table) error {
	docs := rowDocuments(t, time.Now().UTC())
	if len(docs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(docs))
	for i, doc := range docs {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: types.ColURL, Value: t.Cell(i, types.ColURL)}}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.count += len(docs)
	s.logger.Info("rows stored in mongodb",
		"rows", len(docs),
		"upserted", res.UpsertedCount,
		"modified", res.ModifiedCount,
	)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Debug("mongodb storage closing", "total_rows", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// rowDocuments converts rows into ordered BSON documents stamped with the export time.
func rowDocuments(t *Table, exportedAt time.Time) []bson.D {
	docs := make([]bson.D, t.Len())
	for i := range t.Rows {
		doc := make(bson.D, 0, len(t.Columns)+1)
		for _, col := range t.Columns {
			doc = append(doc, bson.E{Key: col, Value: t.Cell(i, col)})
		}
		doc = append(doc, bson.E{Key: "_exported_at", Value: exportedAt})
		docs[i] = doc
	}
	return docs
}
