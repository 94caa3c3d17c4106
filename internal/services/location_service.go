package services

import (
	"context"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
)

const (
	defaultNearbyMeters = 3000
	maxNearbyMeters     = 50000
	nearbyLimit         = 50
)

// LocationService manages the walking course catalogue
type LocationService struct {
	repo repositories.LocationRepository
}

func NewLocationService(repo repositories.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) List(ctx context.Context) ([]models.Location, error) {
	locations, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Persistence("list locations", err)
	}
	return locations, nil
}

func (s *LocationService) GetByID(ctx context.Context, id string) (*models.Location, error) {
	location, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("get location", err)
	}
	return location, nil
}

// Create registers a course on behalf of identity
func (s *LocationService) Create(ctx context.Context, identity string, req models.LocationRequest) (*models.Location, error) {
	if identity == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	location, err := locationFromRequest(req)
	if err != nil {
		return nil, err
	}
	location.CreatedBy = identity

	if err := s.repo.Create(ctx, location); err != nil {
		return nil, apperrors.Persistence("create location", err)
	}
	return location, nil
}

func (s *LocationService) Update(ctx context.Context, id string, req models.LocationRequest) (*models.Location, error) {
	location, err := locationFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, location); err != nil {
		return nil, apperrors.Persistence("update location", err)
	}
	return s.GetByID(ctx, id)
}

func (s *LocationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Persistence("delete location", err)
	}
	return nil
}

// Nearby returns courses within radiusMeters of a coordinate, closest first.
// A non-positive radius uses the default; large radii are capped.
func (s *LocationService) Nearby(ctx context.Context, lat, lng, radiusMeters float64) ([]models.Location, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperrors.Invalid("coordinate out of range")
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultNearbyMeters
	}
	if radiusMeters > maxNearbyMeters {
		radiusMeters = maxNearbyMeters
	}

	locations, err := s.repo.Nearby(ctx, models.NewGeoPoint(lat, lng), radiusMeters, nearbyLimit)
	if err != nil {
		return nil, apperrors.Persistence("nearby locations", err)
	}
	return locations, nil
}

func locationFromRequest(req models.LocationRequest) (*models.Location, error) {
	name := sanitizeText(req.Name)
	if name == "" {
		return nil, apperrors.Invalid("name must not be empty")
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, apperrors.Invalid("coordinate out of range")
	}
	return &models.Location{
		Name:        name,
		Description: sanitizeBody(req.Description),
		Address:     sanitizeText(req.Address),
		DistanceKm:  req.DistanceKm,
		Point:       models.NewGeoPoint(req.Latitude, req.Longitude),
	}, nil
}
