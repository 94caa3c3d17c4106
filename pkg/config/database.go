package config

import (
	"context"
	"fmt"
	"time"

	"github.com/onsil/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client // nil when MONGO_URI is unset
}

// InitDB initializes and returns the database connections
func InitDB(cfg *Config) (*DB, error) {
	postgresDB, err := initPostgres(cfg.PostgresUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db := &DB{Postgres: postgresDB}
	if cfg.MongoURI == "" {
		logger.Log.Warn("MONGO_URI not set, walking location routes are disabled")
		return db, nil
	}

	mongoClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db.Mongo = mongoClient
	return db, nil
}

// GormConfig is shared by the server and the tests so unique violations
// surface as gorm.ErrDuplicatedKey everywhere.
func GormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), GormConfig())
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Log.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Log.Info("Successfully connected to MongoDB")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			logger.Log.Errorf("Error getting SQL DB from GORM: %v", err)
		} else if err := sqlDB.Close(); err != nil {
			logger.Log.Errorf("Error closing PostgreSQL connection: %v", err)
		} else {
			logger.Log.Info("PostgreSQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			logger.Log.Errorf("Error closing MongoDB connection: %v", err)
		} else {
			logger.Log.Info("MongoDB connection closed")
		}
	}
}
