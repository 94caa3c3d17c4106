package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a curated walking course stored in MongoDB
type Location struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Address     string             `json:"address" bson:"address"`
	DistanceKm  float64            `json:"distance_km" bson:"distance_km"` // course length
	Point       GeoPoint           `json:"point" bson:"point"`
	CreatedBy   string             `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from latitude and longitude.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// LocationRequest defines the request body for creating or updating a location
type LocationRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Address     string  `json:"address" validate:"max=255"`
	DistanceKm  float64 `json:"distance_km" validate:"min=0,max=500"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
}
