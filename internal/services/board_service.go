package services

import (
	"context"
	"errors"
	"strings"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/metrics"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
	"github.com/onsil/backend/pkg/logger"
)

// ImageRemover deletes stored board images
type ImageRemover interface {
	Delete(ctx context.Context, ref string) error
}

// BoardInput carries the editable fields of a board
type BoardInput struct {
	Title    string
	Content  string
	Category models.Category
	Image    string // blob reference, empty for none / keep current
}

// BoardService owns the board lifecycle and keeps Board.RecommendCount equal
// to the number of ledger entries of the board.
type BoardService struct {
	store  repositories.Store
	images ImageRemover
	limits PageLimits
}

// NewBoardService creates a BoardService. images may be nil.
func NewBoardService(store repositories.Store, images ImageRemover, limits PageLimits) *BoardService {
	return &BoardService{store: store, images: images, limits: limits}
}

func (in *BoardInput) clean() error {
	in.Title = sanitizeText(in.Title)
	in.Content = sanitizeBody(in.Content)
	if in.Title == "" {
		return apperrors.Invalid("title must not be empty")
	}
	if in.Content == "" {
		return apperrors.Invalid("content must not be empty")
	}
	if !in.Category.Valid() {
		return apperrors.Invalid("unknown category %q", in.Category)
	}
	return nil
}

// Create stores a new board written by the member behind identity
func (s *BoardService) Create(ctx context.Context, identity string, in BoardInput) (*models.Board, error) {
	if identity == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := in.clean(); err != nil {
		return nil, err
	}

	member, err := s.store.Members().GetByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnknownWriter
		}
		return nil, apperrors.Persistence("find writer", err)
	}

	board := &models.Board{
		Title:          in.Title,
		Content:        in.Content,
		Category:       in.Category,
		Image:          in.Image,
		RecommendCount: 0,
		Writer:         member.Email,
	}
	if err := s.store.Boards().Create(ctx, board); err != nil {
		logger.ErrorWithFields("board create failed", logger.Fields{"writer": member.Email, "error": err.Error()})
		return nil, apperrors.Persistence("create board", err)
	}

	logger.InfoWithFields("board created", logger.Fields{"board_id": board.ID, "writer": board.Writer})
	return board, nil
}

// Update replaces title, content and category, and the image when one is given
func (s *BoardService) Update(ctx context.Context, id uint, in BoardInput) (*models.Board, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}

	var (
		updated  *models.Board
		replaced string
	)
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		board, err := tx.Boards().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		board.Title = in.Title
		board.Content = in.Content
		board.Category = in.Category
		if in.Image != "" && in.Image != board.Image {
			replaced = board.Image
			board.Image = in.Image
		}
		if err := tx.Boards().UpdateContent(ctx, board); err != nil {
			return err
		}
		updated = board
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("update board", err)
	}

	s.removeImage(ctx, id, replaced)
	return updated, nil
}

// Delete removes a board together with its recommendations and comments.
// Deleting an unknown board fails with ErrNotFound.
func (s *BoardService) Delete(ctx context.Context, id uint) error {
	var image string
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		board, err := tx.Boards().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		image = board.Image
		if _, err := tx.Recommendations().DeleteByBoard(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Comments().DeleteByBoard(ctx, id); err != nil {
			return err
		}
		return tx.Boards().Delete(ctx, id)
	})
	if err != nil {
		return apperrors.Persistence("delete board", err)
	}

	s.removeImage(ctx, id, image)
	logger.InfoWithFields("board deleted", logger.Fields{"board_id": id})
	return nil
}

// removeImage deletes a stored image that no board references any more.
// Failures are only logged.
func (s *BoardService) removeImage(ctx context.Context, boardID uint, image string) {
	if image == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, image); err != nil {
		logger.WarnWithFields("board image cleanup failed", logger.Fields{"board_id": boardID, "image": image, "error": err.Error()})
	}
}

// GetByID returns one board
func (s *BoardService) GetByID(ctx context.Context, id uint) (*models.Board, error) {
	board, err := s.store.Boards().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence("get board", err)
	}
	return board, nil
}

// Search returns boards whose title contains fragment, case-insensitively.
// A blank fragment matches nothing.
func (s *BoardService) Search(ctx context.Context, fragment string) ([]models.Board, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []models.Board{}, nil
	}
	boards, err := s.store.Boards().SearchByTitle(ctx, fragment)
	if err != nil {
		return nil, apperrors.Persistence("search boards", err)
	}
	return boards, nil
}

// ListPaged pages through all boards, newest first
func (s *BoardService) ListPaged(ctx context.Context, req models.PageRequest) (models.Page[models.Board], error) {
	return s.list(ctx, repositories.BoardFilter{}, req)
}

// ListByCategory pages through the boards of one category, newest first
func (s *BoardService) ListByCategory(ctx context.Context, category models.Category, req models.PageRequest) (models.Page[models.Board], error) {
	if !category.Valid() {
		return models.Page[models.Board]{}, apperrors.Invalid("unknown category %q", category)
	}
	return s.list(ctx, repositories.BoardFilter{Category: category}, req)
}

// ListRecommended pages through recommended boards, most recommended first
func (s *BoardService) ListRecommended(ctx context.Context, req models.PageRequest) (models.Page[models.Board], error) {
	return s.list(ctx, repositories.BoardFilter{RecommendedOnly: true}, req)
}

func (s *BoardService) list(ctx context.Context, filter repositories.BoardFilter, req models.PageRequest) (models.Page[models.Board], error) {
	req = s.limits.normalize(req)
	boards, total, err := s.store.Boards().List(ctx, filter, req.Offset(), req.Size)
	if err != nil {
		return models.Page[models.Board]{}, apperrors.Persistence("list boards", err)
	}
	return models.NewPage(boards, req, total), nil
}

// Recommend grants userID's recommendation on a board and bumps its counter
// in the same transaction. It returns the new counter value.
func (s *BoardService) Recommend(ctx context.Context, boardID uint, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.ErrUnauthenticated
	}

	var count int
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		// the row lock serializes every recommendation change on this board
		board, err := tx.Boards().GetForUpdate(ctx, boardID)
		if err != nil {
			return err
		}
		if err := tx.Recommendations().Grant(ctx, boardID, userID); err != nil {
			return err
		}
		if err := tx.Boards().IncrementRecommendCount(ctx, boardID); err != nil {
			return err
		}
		count = board.RecommendCount + 1
		return nil
	})
	if err != nil {
		return 0, apperrors.Persistence("recommend board", err)
	}

	metrics.Recommendations.WithLabelValues("grant").Inc()
	logger.InfoWithFields("board recommended", logger.Fields{"board_id": boardID, "user_id": userID, "recommend_count": count})
	return count, nil
}

// Unrecommend withdraws userID's recommendation and decrements the counter
// in the same transaction. It returns the new counter value.
func (s *BoardService) Unrecommend(ctx context.Context, boardID uint, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.ErrUnauthenticated
	}

	var count int
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		board, err := tx.Boards().GetForUpdate(ctx, boardID)
		if err != nil {
			return err
		}
		if err := tx.Recommendations().Revoke(ctx, boardID, userID); err != nil {
			return err
		}
		applied, err := tx.Boards().DecrementRecommendCount(ctx, boardID)
		if err != nil {
			return err
		}
		if !applied {
			metrics.CounterClamps.Inc()
			logger.WarnWithFields("recommend counter already zero", logger.Fields{"board_id": boardID, "user_id": userID})
			count = 0
			return nil
		}
		count = board.RecommendCount - 1
		return nil
	})
	if err != nil {
		return 0, apperrors.Persistence("unrecommend board", err)
	}

	metrics.Recommendations.WithLabelValues("revoke").Inc()
	logger.InfoWithFields("board unrecommended", logger.Fields{"board_id": boardID, "user_id": userID, "recommend_count": count})
	return count, nil
}

// HasUserRecommended reports whether userID currently recommends the board
func (s *BoardService) HasUserRecommended(ctx context.Context, boardID uint, userID string) (bool, error) {
	if _, err := s.store.Boards().GetByID(ctx, boardID); err != nil {
		return false, apperrors.Persistence("get board", err)
	}
	ok, err := s.store.Recommendations().Exists(ctx, boardID, userID)
	if err != nil {
		return false, apperrors.Persistence("check recommendation", err)
	}
	return ok, nil
}

// RecommendStatus compares the board counter with the ledger
func (s *BoardService) RecommendStatus(ctx context.Context, boardID uint) (*models.RecommendStatus, error) {
	board, err := s.store.Boards().GetByID(ctx, boardID)
	if err != nil {
		return nil, apperrors.Persistence("get board", err)
	}
	ledger, err := s.store.Recommendations().CountFor(ctx, boardID)
	if err != nil {
		return nil, apperrors.Persistence("count recommendations", err)
	}
	return &models.RecommendStatus{
		BoardID:        boardID,
		RecommendCount: board.RecommendCount,
		LedgerCount:    ledger,
		InSync:         int64(board.RecommendCount) == ledger,
	}, nil
}

// ReconcileRecommendCount rewrites the board counter from the ledger.
// Only the board's writer may trigger it.
func (s *BoardService) ReconcileRecommendCount(ctx context.Context, boardID uint, identity string) (*models.RecommendStatus, error) {
	if identity == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	var status *models.RecommendStatus
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		board, err := tx.Boards().GetForUpdate(ctx, boardID)
		if err != nil {
			return err
		}
		if board.Writer != identity {
			logger.WarnWithFields("reconcile refused", logger.Fields{"board_id": boardID, "identity": identity})
			return apperrors.ErrForbidden
		}
		ledger, err := tx.Recommendations().CountFor(ctx, boardID)
		if err != nil {
			return err
		}
		if int64(board.RecommendCount) != ledger {
			logger.WarnWithFields("recommend counter drifted from ledger", logger.Fields{
				"board_id": boardID, "recommend_count": board.RecommendCount, "ledger_count": ledger,
			})
			if err := tx.Boards().SetRecommendCount(ctx, boardID, int(ledger)); err != nil {
				return err
			}
		}
		status = &models.RecommendStatus{BoardID: boardID, RecommendCount: int(ledger), LedgerCount: ledger, InSync: true}
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence("reconcile recommendations", err)
	}
	return status, nil
}
