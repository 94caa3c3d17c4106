package repositories

import (
	"context"
	"errors"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"gorm.io/gorm"
)

// RecommendationRepository is the recommendation ledger: one row per
// (board, user) grant. Callers keep Board.RecommendCount in step with it
// inside the same transaction.
type RecommendationRepository interface {
	Grant(ctx context.Context, boardID uint, userID string) error
	Revoke(ctx context.Context, boardID uint, userID string) error
	Exists(ctx context.Context, boardID uint, userID string) (bool, error)
	CountFor(ctx context.Context, boardID uint) (int64, error)
	DeleteByBoard(ctx context.Context, boardID uint) (int64, error)
}

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *gorm.DB
}

// NewPostgresRecommendationRepository creates a new PostgresRecommendationRepository
func NewPostgresRecommendationRepository(db *gorm.DB) *PostgresRecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// Grant records that userID recommended boardID
func (r *PostgresRecommendationRepository) Grant(ctx context.Context, boardID uint, userID string) error {
	exists, err := r.Exists(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrAlreadyRecommended
	}

	rec := &models.Recommendation{BoardID: boardID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyRecommended
		}
		return err
	}
	return nil
}

// Revoke deletes the grant of userID on boardID
func (r *PostgresRecommendationRepository) Revoke(ctx context.Context, boardID uint, userID string) error {
	res := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&models.Recommendation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotRecommended
	}
	return nil
}

// Exists checks if a user has recommended a specific board
func (r *PostgresRecommendationRepository) Exists(ctx context.Context, boardID uint, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Recommendation{}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountFor returns the number of ledger entries for a board
func (r *PostgresRecommendationRepository) CountFor(ctx context.Context, boardID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Recommendation{}).
		Where("board_id = ?", boardID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByBoard removes every ledger entry of a board
func (r *PostgresRecommendationRepository) DeleteByBoard(ctx context.Context, boardID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&models.Recommendation{})
	return res.RowsAffected, res.Error
}
