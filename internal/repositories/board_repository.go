package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoardFilter narrows a board listing
type BoardFilter struct {
	Category        models.Category // empty means any
	RecommendedOnly bool            // only boards with at least one recommendation, most recommended first
}

// BoardRepository defines the interface for board data operations
type BoardRepository interface {
	Create(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, id uint) (*models.Board, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Board, error)
	UpdateContent(ctx context.Context, board *models.Board) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter BoardFilter, offset, limit int) ([]models.Board, int64, error)
	SearchByTitle(ctx context.Context, fragment string) ([]models.Board, error)
	IncrementRecommendCount(ctx context.Context, id uint) error
	DecrementRecommendCount(ctx context.Context, id uint) (bool, error)
	SetRecommendCount(ctx context.Context, id uint, count int) error
}

// PostgresBoardRepository implements BoardRepository for PostgreSQL
type PostgresBoardRepository struct {
	db *gorm.DB
}

// NewPostgresBoardRepository creates a new PostgresBoardRepository
func NewPostgresBoardRepository(db *gorm.DB) *PostgresBoardRepository {
	return &PostgresBoardRepository{db: db}
}

// Create inserts a new board
func (r *PostgresBoardRepository) Create(ctx context.Context, board *models.Board) error {
	return r.db.WithContext(ctx).Create(board).Error
}

// GetByID retrieves a board by ID
func (r *PostgresBoardRepository) GetByID(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).First(&board, id).Error; err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

// GetForUpdate retrieves a board and locks its row until the surrounding
// transaction ends. SQLite has no row locks; it serializes writers instead.
func (r *PostgresBoardRepository) GetForUpdate(ctx context.Context, id uint) (*models.Board, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var board models.Board
	if err := q.First(&board, id).Error; err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

// UpdateContent writes the editable columns only. Counter and writer are never touched.
func (r *PostgresBoardRepository) UpdateContent(ctx context.Context, board *models.Board) error {
	board.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Board{ID: board.ID}).
		Select("title", "content", "category", "image", "updated_at").
		Updates(board)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a board row
func (r *PostgresBoardRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Board{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns one page of boards and the total number of matching rows.
// Ordering always ends on the primary key so pages never overlap.
func (r *PostgresBoardRepository) List(ctx context.Context, filter BoardFilter, offset, limit int) ([]models.Board, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Board{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.RecommendedOnly {
		q = q.Where("recommend_count > 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.RecommendedOnly {
		q = q.Order("recommend_count DESC")
	}
	var boards []models.Board
	if err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&boards).Error; err != nil {
		return nil, 0, err
	}
	return boards, total, nil
}

// SearchByTitle does a case-insensitive partial match on the title
func (r *PostgresBoardRepository) SearchByTitle(ctx context.Context, fragment string) ([]models.Board, error) {
	boards := []models.Board{}
	pattern := "%" + escapeLike(fragment) + "%"
	err := r.db.WithContext(ctx).
		Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, pattern).
		Order("id DESC").
		Find(&boards).Error
	if err != nil {
		return nil, err
	}
	return boards, nil
}

// IncrementRecommendCount increments the recommend count of a board
func (r *PostgresBoardRepository) IncrementRecommendCount(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ?", id).
		UpdateColumn("recommend_count", gorm.Expr("recommend_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DecrementRecommendCount decrements the recommend count of a board without
// going below zero. It reports whether a row was changed.
func (r *PostgresBoardRepository) DecrementRecommendCount(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ? AND recommend_count > 0", id).
		UpdateColumn("recommend_count", gorm.Expr("recommend_count - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetRecommendCount overwrites the counter, used when reconciling with the ledger
func (r *PostgresBoardRepository) SetRecommendCount(ctx context.Context, id uint, count int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ?", id).
		UpdateColumn("recommend_count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
