package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SettingsDocument is the stored shape of one profile
type SettingsDocument struct {
	Profile   string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// SettingsRepository is a MongoDB-backed configuration store. It satisfies
// store.Store: all keys of a profile live in one document, writes use $set
// so concurrent writers of different keys do not clobber each other.
type SettingsRepository struct {
	collection *mongo.Collection
	profile    string
}

// NewSettingsRepository creates a repository bound to the connection's profile
func NewSettingsRepository(conn *Connection) *SettingsRepository {
	return &SettingsRepository{
		collection: conn.GetCollection(SettingsCollection),
		profile:    conn.Config.Profile,
	}
}

// Get returns a value for every key; absent keys and absent documents yield ""
func (r *SettingsRepository) Get(ctx context.Context, keys []string) (map[string]string, error) {
	projection := bson.M{}
	for _, k := range keys {
		projection[valuePath(k)] = 1
	}

	var doc SettingsDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": r.profile}, options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return pick(doc.Values, keys), nil
}

// Set upserts the given keys
func (r *SettingsRepository) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	update := bson.M{"$set": setDocument(values, time.Now().UTC())}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": r.profile}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func valuePath(key string) string {
	return "values." + key
}

func setDocument(values map[string]string, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	for k, v := range values {
		set[valuePath(k)] = v
	}
	return set
}

func pick(values map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = values[k]
	}
	return out
}
