package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aashari/go-selection-relay/internal/logger"
)

// SettingsCollection holds one document per settings profile
const SettingsCollection = "extension-settings"

// Connection holds the MongoDB connection and configuration
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
	Config   *DatabaseConfig
}

// Connect opens and verifies a MongoDB connection
func Connect(ctx context.Context, config *DatabaseConfig) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.URI)
	if config.AppName != "" {
		clientOptions.SetAppName(config.AppName)
	}

	masked := config.MaskSensitiveData()
	logger.Info("Connecting to MongoDB", "database", masked.DatabaseName, "uri", masked.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	conn := &Connection{
		Client:   client,
		Database: client.Database(config.DatabaseName),
		Config:   config,
	}

	if err := conn.createIndexes(ctx); err != nil {
		// reads and writes by _id still work without it
		logger.Warn("Failed to create database indexes", "error", err)
	}

	logger.Info("Connected to MongoDB", "database", config.DatabaseName)
	return conn, nil
}

// Disconnect closes the MongoDB connection
func (c *Connection) Disconnect() error {
	if c.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return c.Client.Disconnect(ctx)
}

// HealthCheck performs a health check on the MongoDB connection
func (c *Connection) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("MongoDB client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}
	return nil
}

// GetCollection returns a MongoDB collection
func (c *Connection) GetCollection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

func (c *Connection) createIndexes(ctx context.Context) error {
	updatedAtIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("updated_at_desc"),
	}

	_, err := c.GetCollection(SettingsCollection).Indexes().CreateOne(ctx, updatedAtIndex)
	if err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", SettingsCollection, err)
	}
	return nil
}
