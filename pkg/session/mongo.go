package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Defaults for MongoConfig.
const (
	DefaultMongoDatabase   = "bomcheck"
	DefaultMongoCollection = "sessions"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// MongoStore keeps one document per session key. A TTL index on expire_at
// lets MongoDB drop sessions once their refresh token has expired.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc is the stored shape. The session itself is kept as JSON so
// timestamps survive with full precision.
type mongoDoc struct {
	Key       string     `bson:"_id"`
	Data      string     `bson:"data"`
	ExpireAt  *time.Time `bson:"expire_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB, pings the server and ensures the TTL
// index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := NewMongoStoreFromClient(client, cfg.Database, cfg.Collection)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Empty names select
// DefaultMongoDatabase and DefaultMongoCollection.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expire_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create mongodb ttl index: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, key string) (*Session, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(doc.Data), &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	// The TTL monitor runs about once a minute, so expiry is checked here too.
	if sess.IsExpired() {
		_, _ = s.coll.DeleteOne(ctx, bson.M{"_id": key})
		return nil, ErrExpired
	}
	return &sess, nil
}

func (s *MongoStore) Set(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	doc := mongoDoc{
		Key:       sess.Key,
		Data:      string(data),
		UpdatedAt: sess.UpdatedAt,
	}
	if exp := sess.Token.RefreshExpiresAt; !exp.IsZero() {
		doc.ExpireAt = &exp
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.Key}, doc, opts); err != nil {
		return fmt.Errorf("mongodb save session: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongodb delete session: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
