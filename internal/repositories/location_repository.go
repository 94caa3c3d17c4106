package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LocationRepository defines the interface for walking location data operations
type LocationRepository interface {
	Create(ctx context.Context, location *models.Location) error
	GetByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
	Nearby(ctx context.Context, point models.GeoPoint, maxMeters float64, limit int64) ([]models.Location, error)
	Update(ctx context.Context, id string, location *models.Location) error
	Delete(ctx context.Context, id string) error
}

// MongoLocationRepository implements LocationRepository for MongoDB
type MongoLocationRepository struct {
	collection *mongo.Collection
}

// NewMongoLocationRepository creates a new MongoLocationRepository
func NewMongoLocationRepository(db *mongo.Database) *MongoLocationRepository {
	return &MongoLocationRepository{collection: db.Collection("locations")}
}

// EnsureIndexes creates the geospatial index used by Nearby
func (r *MongoLocationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "point", Value: "2dsphere"}},
	})
	return err
}

// Create creates a new location in MongoDB
func (r *MongoLocationRepository) Create(ctx context.Context, location *models.Location) error {
	location.ID = primitive.NewObjectID()
	location.CreatedAt = time.Now()
	location.UpdatedAt = location.CreatedAt
	_, err := r.collection.InsertOne(ctx, location)
	return err
}

// GetByID retrieves a location by ID from MongoDB
func (r *MongoLocationRepository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	var location models.Location
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&location)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

// List retrieves all locations ordered by name
func (r *MongoLocationRepository) List(ctx context.Context) ([]models.Location, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	locations := []models.Location{}
	if err = cursor.All(ctx, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Nearby retrieves locations within maxMeters of point, closest first
func (r *MongoLocationRepository) Nearby(ctx context.Context, point models.GeoPoint, maxMeters float64, limit int64) ([]models.Location, error) {
	filter := bson.M{
		"point": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    point,
				"$maxDistance": maxMeters,
			},
		},
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	locations := []models.Location{}
	if err = cursor.All(ctx, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Update updates an existing location in MongoDB
func (r *MongoLocationRepository) Update(ctx context.Context, id string, location *models.Location) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	location.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":        location.Name,
			"description": location.Description,
			"address":     location.Address,
			"distance_km": location.DistanceKm,
			"point":       location.Point,
			"updated_at":  location.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete deletes a location by ID from MongoDB
func (r *MongoLocationRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
