package repositories

import (
	"context"
	"errors"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"gorm.io/gorm"
)

// Store groups the relational repositories so that a service can run several
// of them inside one transaction.
type Store interface {
	Boards() BoardRepository
	Recommendations() RecommendationRepository
	Comments() CommentRepository
	Members() MemberRepository
	// Transaction runs fn with a Store bound to a single database transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// PostgresStore implements Store on top of gorm
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Boards() BoardRepository {
	return NewPostgresBoardRepository(s.db)
}

func (s *PostgresStore) Recommendations() RecommendationRepository {
	return NewPostgresRecommendationRepository(s.db)
}

func (s *PostgresStore) Comments() CommentRepository {
	return NewPostgresCommentRepository(s.db)
}

func (s *PostgresStore) Members() MemberRepository {
	return NewPostgresMemberRepository(s.db)
}

func (s *PostgresStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx})
	})
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Member{},
		&models.Board{},
		&models.Recommendation{},
		&models.Comment{},
	)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}
