package repositories

import (
	"context"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByBoard(ctx context.Context, boardID uint) ([]models.Comment, error)
	Delete(ctx context.Context, id uint) error
	DeleteByBoard(ctx context.Context, boardID uint) (int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// Create creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// ListByBoard retrieves all comments of a board, oldest first
func (r *PostgresCommentRepository) ListByBoard(ctx context.Context, boardID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete deletes a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByBoard deletes every comment of a board
func (r *PostgresCommentRepository) DeleteByBoard(ctx context.Context, boardID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}
