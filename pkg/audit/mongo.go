package audit

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
)

const defaultListLimit = 50

// MongoConfig configures the MongoDB-backed recorder.
type MongoConfig struct {
	URI        string // connection string, e.g. mongodb://localhost:27017
	Database   string // defaults to "cleave"
	Collection string // defaults to "cleaves"
}

// MongoRecorder persists audit entries to a MongoDB collection, indexed by
// body and recording time so per-body history queries stay cheap.
type MongoRecorder struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoRecorder connects to MongoDB and ensures the history index.
func NewMongoRecorder(ctx context.Context, cfg MongoConfig) (*MongoRecorder, error) {
	if cfg.Database == "" {
		cfg.Database = "cleave"
	}
	if cfg.Collection == "" {
		cfg.Collection = "cleaves"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "connect to audit store %s", cfg.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "ping audit store %s", cfg.URI)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "body", Value: 1}, {Key: "recorded_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "create audit index")
	}

	return &MongoRecorder{client: client, coll: coll}, nil
}

// Record inserts one entry.
func (r *MongoRecorder) Record(ctx context.Context, e Entry) error {
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "record cleave %s", e.RequestID)
	}
	return nil
}

// List returns the body's entries newest first.
func (r *MongoRecorder) List(ctx context.Context, body uint64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{{Key: "body", Value: body}}, opts)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "list cleaves for body %d", body)
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "decode cleave history for body %d", body)
	}
	return entries, nil
}

// Close disconnects from MongoDB.
func (r *MongoRecorder) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

var _ Recorder = (*MongoRecorder)(nil)
