package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
	"github.com/mamadbah2/aviario/internal/domain/models"
)

const snapshotCollection = "indicator_snapshots"

// ErrNotFound is returned when no snapshot exists for a batch.
var ErrNotFound = errors.New("snapshot not found")

// IndicatorSnapshot is the archived indicator state of one batch at report time.
type IndicatorSnapshot struct {
	BatchID     string             `bson:"batch_id" json:"batch_id"`
	BatchCode   string             `bson:"batch_code" json:"batch_code"`
	Breed       models.Breed       `bson:"breed" json:"breed"`
	GeneratedAt time.Time          `bson:"generated_at" json:"generated_at"`
	Indicators  metrics.Indicators `bson:"indicators" json:"indicators"`
}

// Repository defines the interface for snapshot storage.
type Repository interface {
	SaveIndicatorSnapshot(ctx context.Context, snapshot IndicatorSnapshot) error
	LatestSnapshot(ctx context.Context, batchID string) (IndicatorSnapshot, error)
}

type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	coll   collection
	logger *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and ensures the snapshot index.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(dbName).Collection(snapshotCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: "generated_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create snapshot index: %w", err)
	}

	return &MongoDBRepository{client: client, coll: coll, logger: logger}, nil
}

// SaveIndicatorSnapshot archives one snapshot.
func (r *MongoDBRepository) SaveIndicatorSnapshot(ctx context.Context, snapshot IndicatorSnapshot) error {
	if _, err := r.coll.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert snapshot for batch %s: %w", snapshot.BatchID, err)
	}
	r.logger.Debug("indicator snapshot archived", zap.String("batch_id", snapshot.BatchID))
	return nil
}

// LatestSnapshot returns the most recent snapshot of a batch.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context, batchID string) (IndicatorSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})

	var snapshot IndicatorSnapshot
	err := r.coll.FindOne(ctx, bson.M{"batch_id": batchID}, opts).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return IndicatorSnapshot{}, ErrNotFound
	}
	if err != nil {
		return IndicatorSnapshot{}, fmt.Errorf("failed to load snapshot for batch %s: %w", batchID, err)
	}
	return snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}
