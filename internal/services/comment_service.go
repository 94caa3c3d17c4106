package services

import (
	"context"
	"errors"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
	"github.com/onsil/backend/pkg/logger"
)

// CommentService manages comments on boards
type CommentService struct {
	store repositories.Store
}

func NewCommentService(store repositories.Store) *CommentService {
	return &CommentService{store: store}
}

// Create adds a comment by the member behind identity to a board
func (s *CommentService) Create(ctx context.Context, identity string, boardID uint, text string) (*models.Comment, error) {
	if identity == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	text = sanitizeText(text)
	if text == "" {
		return nil, apperrors.Invalid("comment must not be empty")
	}

	if _, err := s.store.Boards().GetByID(ctx, boardID); err != nil {
		return nil, apperrors.Persistence("get board", err)
	}
	if _, err := s.store.Members().GetByEmail(ctx, identity); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnknownWriter
		}
		return nil, apperrors.Persistence("find author", err)
	}

	comment := &models.Comment{BoardID: boardID, Author: identity, Content: text}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, apperrors.Persistence("create comment", err)
	}
	return comment, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID uint, identity string) error {
	if identity == "" {
		return apperrors.ErrUnauthenticated
	}

	comment, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return apperrors.Persistence("get comment", err)
	}
	if comment.Author != identity {
		logger.WarnWithFields("comment delete refused", logger.Fields{"comment_id": commentID, "identity": identity})
		return apperrors.ErrForbidden
	}

	if err := s.store.Comments().Delete(ctx, commentID); err != nil {
		return apperrors.Persistence("delete comment", err)
	}
	return nil
}

// ListByBoard returns the comments of a board, oldest first
func (s *CommentService) ListByBoard(ctx context.Context, boardID uint) ([]models.Comment, error) {
	if _, err := s.store.Boards().GetByID(ctx, boardID); err != nil {
		return nil, apperrors.Persistence("get board", err)
	}
	comments, err := s.store.Comments().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, apperrors.Persistence("list comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
