package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pyventory/pyventory/pkg/inventory"
)

const (
	mongoDatabase   = "pyventory"
	mongoCollection = "snapshots"
)

// MongoStore keeps snapshots in a MongoDB collection, one document per scan.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection before use.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, snap *inventory.Snapshot) error {
	if _, err := s.coll.InsertOne(ctx, snap); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) Latest(ctx context.Context) (*inventory.Snapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})
	var snap inventory.Snapshot
	err := s.coll.FindOne(ctx, bson.D{}, opts).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return &snap, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
