package repositories

import (
	"context"

	"github.com/onsil/backend/internal/models"
	"gorm.io/gorm"
)

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
}

// PostgresMemberRepository implements MemberRepository for PostgreSQL
type PostgresMemberRepository struct {
	db *gorm.DB
}

// NewPostgresMemberRepository creates a new PostgresMemberRepository
func NewPostgresMemberRepository(db *gorm.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

// Create creates a new member in PostgreSQL
func (r *PostgresMemberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID retrieves a member by ID from PostgreSQL
func (r *PostgresMemberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// GetByEmail retrieves a member by email
func (r *PostgresMemberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// GetByFirebaseUID retrieves a member by Firebase UID from PostgreSQL
func (r *PostgresMemberRepository) GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// Update updates an existing member in PostgreSQL
func (r *PostgresMemberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}
