package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
	"github.com/onsil/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = PageLimits{DefaultSize: 10, MaxSize: 50}

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeImages) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func newBoardService(t *testing.T) (*BoardService, repositories.Store, *fakeImages) {
	t.Helper()
	store, _ := testutil.NewStore(t)
	images := &fakeImages{}
	return NewBoardService(store, images, testLimits), store, images
}

func assertCounterMatchesLedger(t *testing.T, store repositories.Store, boardID uint) {
	t.Helper()
	ctx := context.Background()
	board, err := store.Boards().GetByID(ctx, boardID)
	require.NoError(t, err)
	ledger, err := store.Recommendations().CountFor(ctx, boardID)
	require.NoError(t, err)
	assert.Equal(t, ledger, int64(board.RecommendCount))
}

func TestBoardService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores board with zero recommendations", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		testutil.SeedMember(t, store, "amy@example.com")

		board, err := svc.Create(ctx, "amy@example.com", BoardInput{
			Title: "Morning walk", Content: "Along the river", Category: models.CategoryWalk, Image: "/media/boards/a.png",
		})
		require.NoError(t, err)
		assert.NotZero(t, board.ID)
		assert.Equal(t, 0, board.RecommendCount)
		assert.Equal(t, "amy@example.com", board.Writer)
		assert.Equal(t, "/media/boards/a.png", board.Image)
	})

	t.Run("unknown writer", func(t *testing.T) {
		svc, _, _ := newBoardService(t)
		_, err := svc.Create(ctx, "ghost@example.com", BoardInput{Title: "t", Content: "c", Category: models.CategoryWalk})
		assert.ErrorIs(t, err, apperrors.ErrUnknownWriter)
	})

	t.Run("missing identity", func(t *testing.T) {
		svc, _, _ := newBoardService(t)
		_, err := svc.Create(ctx, "", BoardInput{Title: "t", Content: "c", Category: models.CategoryWalk})
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		testutil.SeedMember(t, store, "amy@example.com")
		_, err := svc.Create(ctx, "amy@example.com", BoardInput{Title: "t", Content: "c", Category: "SPORTS"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("strips markup from title", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		testutil.SeedMember(t, store, "amy@example.com")
		board, err := svc.Create(ctx, "amy@example.com", BoardInput{
			Title: "<b>Park</b><script>alert(1)</script>", Content: "ok", Category: models.CategoryCommunity,
		})
		require.NoError(t, err)
		assert.Equal(t, "Park", board.Title)
	})

	t.Run("keeps ampersands and quotes as typed", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		testutil.SeedMember(t, store, "amy@example.com")
		board, err := svc.Create(ctx, "amy@example.com", BoardInput{
			Title: "Tom & Jerry's <walk>", Content: "ok", Category: models.CategoryWalk,
		})
		require.NoError(t, err)
		assert.Equal(t, "Tom & Jerry's", board.Title)

		long := strings.Repeat("&", 200)
		board, err = svc.Create(ctx, "amy@example.com", BoardInput{Title: long, Content: "ok", Category: models.CategoryWalk})
		require.NoError(t, err)
		assert.Equal(t, long, board.Title)
		assert.Equal(t, 200, utf8.RuneCountInString(board.Title))
	})

	t.Run("title that is only markup is empty", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		testutil.SeedMember(t, store, "amy@example.com")
		_, err := svc.Create(ctx, "amy@example.com", BoardInput{Title: "<script>x</script>", Content: "ok", Category: models.CategoryWalk})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestBoardService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces fields and keeps counter", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "Old", models.CategoryWalk)
		_, err := svc.Recommend(ctx, board.ID, "bob@example.com")
		require.NoError(t, err)

		updated, err := svc.Update(ctx, board.ID, BoardInput{Title: "New", Content: "Fresh", Category: models.CategoryHealth})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, models.CategoryHealth, updated.Category)

		stored, err := svc.GetByID(ctx, board.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", stored.Title)
		assert.Equal(t, "Fresh", stored.Content)
		assert.Equal(t, 1, stored.RecommendCount)
		assert.Equal(t, "amy@example.com", stored.Writer)
	})

	t.Run("empty image keeps the current one", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := &models.Board{Title: "t", Content: "c", Category: models.CategoryWalk, Writer: "amy@example.com", Image: "/media/boards/x.png"}
		require.NoError(t, store.Boards().Create(ctx, board))

		updated, err := svc.Update(ctx, board.ID, BoardInput{Title: "t2", Content: "c2", Category: models.CategoryWalk})
		require.NoError(t, err)
		assert.Equal(t, "/media/boards/x.png", updated.Image)
	})

	t.Run("new image removes the replaced one", func(t *testing.T) {
		svc, store, images := newBoardService(t)
		board := &models.Board{Title: "t", Content: "c", Category: models.CategoryWalk, Writer: "amy@example.com", Image: "/media/boards/old.png"}
		require.NoError(t, store.Boards().Create(ctx, board))

		updated, err := svc.Update(ctx, board.ID, BoardInput{Title: "t", Content: "c", Category: models.CategoryWalk, Image: "/media/boards/new.png"})
		require.NoError(t, err)
		assert.Equal(t, "/media/boards/new.png", updated.Image)
		assert.Equal(t, []string{"/media/boards/old.png"}, images.deleted)

		_, err = svc.Update(ctx, board.ID, BoardInput{Title: "t", Content: "c", Category: models.CategoryWalk, Image: "/media/boards/new.png"})
		require.NoError(t, err)
		assert.Equal(t, []string{"/media/boards/old.png"}, images.deleted)
	})

	t.Run("failed update keeps the current image", func(t *testing.T) {
		svc, _, images := newBoardService(t)
		_, err := svc.Update(ctx, 999, BoardInput{Title: "t", Content: "c", Category: models.CategoryWalk, Image: "/media/boards/new.png"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Empty(t, images.deleted)
	})

	t.Run("unknown board", func(t *testing.T) {
		svc, _, _ := newBoardService(t)
		_, err := svc.Update(ctx, 999, BoardInput{Title: "t", Content: "c", Category: models.CategoryWalk})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestBoardService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades to ledger and comments", func(t *testing.T) {
		svc, store, images := newBoardService(t)
		board := &models.Board{Title: "t", Content: "c", Category: models.CategoryWalk, Writer: "amy@example.com", Image: "/media/boards/x.png"}
		require.NoError(t, store.Boards().Create(ctx, board))
		_, err := svc.Recommend(ctx, board.ID, "bob@example.com")
		require.NoError(t, err)
		require.NoError(t, store.Comments().Create(ctx, &models.Comment{BoardID: board.ID, Author: "bob@example.com", Content: "hi"}))

		require.NoError(t, svc.Delete(ctx, board.ID))

		_, err = svc.GetByID(ctx, board.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		ledger, err := store.Recommendations().CountFor(ctx, board.ID)
		require.NoError(t, err)
		assert.Zero(t, ledger)
		comments, err := store.Comments().ListByBoard(ctx, board.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)
		assert.Equal(t, []string{"/media/boards/x.png"}, images.deleted)
	})

	t.Run("unknown board", func(t *testing.T) {
		svc, _, _ := newBoardService(t)
		assert.ErrorIs(t, svc.Delete(ctx, 42), apperrors.ErrNotFound)
	})
}

func TestBoardService_Search(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newBoardService(t)
	testutil.SeedMember(t, store, "amy@example.com")
	testutil.SeedBoard(t, store, "amy@example.com", "Sunset Walk", models.CategoryWalk)
	testutil.SeedBoard(t, store, "amy@example.com", "walking shoes", models.CategoryCommunity)
	testutil.SeedBoard(t, store, "amy@example.com", "Blood pressure", models.CategoryHealth)
	testutil.SeedBoard(t, store, "amy@example.com", "100% fun", models.CategoryCommunity)

	t.Run("case insensitive partial match", func(t *testing.T) {
		boards, err := svc.Search(ctx, "WALK")
		require.NoError(t, err)
		require.Len(t, boards, 2)
		titles := []string{boards[0].Title, boards[1].Title}
		assert.ElementsMatch(t, []string{"Sunset Walk", "walking shoes"}, titles)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		boards, err := svc.Search(ctx, "%")
		require.NoError(t, err)
		require.Len(t, boards, 1)
		assert.Equal(t, "100% fun", boards[0].Title)
	})

	t.Run("matches the title as submitted", func(t *testing.T) {
		created, err := svc.Create(ctx, "amy@example.com", BoardInput{
			Title: "Tom & Jerry's walk", Content: "ok", Category: models.CategoryWalk,
		})
		require.NoError(t, err)

		boards, err := svc.Search(ctx, "Tom & Jerry's")
		require.NoError(t, err)
		require.Len(t, boards, 1)
		assert.Equal(t, created.ID, boards[0].ID)
		assert.Equal(t, "Tom & Jerry's walk", boards[0].Title)
	})

	t.Run("no match", func(t *testing.T) {
		boards, err := svc.Search(ctx, "swimming")
		require.NoError(t, err)
		assert.Empty(t, boards)
	})

	t.Run("blank fragment matches nothing", func(t *testing.T) {
		boards, err := svc.Search(ctx, "   ")
		require.NoError(t, err)
		assert.NotNil(t, boards)
		assert.Empty(t, boards)
	})
}

func TestBoardService_Listing(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newBoardService(t)

	var ids []uint
	for i := 0; i < 12; i++ {
		category := models.CategoryWalk
		if i%3 == 0 {
			category = models.CategoryHealth
		}
		b := testutil.SeedBoard(t, store, "amy@example.com", fmt.Sprintf("board %d", i), category)
		ids = append(ids, b.ID)
	}

	t.Run("newest first with meta", func(t *testing.T) {
		page, err := svc.ListPaged(ctx, models.PageRequest{Page: 1, Size: 5})
		require.NoError(t, err)
		require.Len(t, page.Items, 5)
		assert.Equal(t, ids[11], page.Items[0].ID)
		assert.Equal(t, int64(12), page.Meta.TotalItems)
		assert.Equal(t, 3, page.Meta.TotalPages)
		assert.True(t, page.Meta.HasNextPage)
		assert.False(t, page.Meta.HasPreviousPage)
	})

	t.Run("last page", func(t *testing.T) {
		page, err := svc.ListPaged(ctx, models.PageRequest{Page: 3, Size: 5})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, ids[0], page.Items[1].ID)
		assert.False(t, page.Meta.HasNextPage)
	})

	t.Run("page beyond the end is empty", func(t *testing.T) {
		page, err := svc.ListPaged(ctx, models.PageRequest{Page: 9, Size: 5})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
	})

	t.Run("defaults and caps the size", func(t *testing.T) {
		page, err := svc.ListPaged(ctx, models.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Meta.CurrentPage)
		assert.Equal(t, 10, page.Meta.ItemsPerPage)

		page, err = svc.ListPaged(ctx, models.PageRequest{Page: 1, Size: 1000})
		require.NoError(t, err)
		assert.Equal(t, 50, page.Meta.ItemsPerPage)
	})

	t.Run("by category", func(t *testing.T) {
		page, err := svc.ListByCategory(ctx, models.CategoryHealth, models.PageRequest{Page: 1, Size: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 4)
		for _, b := range page.Items {
			assert.Equal(t, models.CategoryHealth, b.Category)
		}

		_, err = svc.ListByCategory(ctx, "SPORTS", models.PageRequest{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("recommended ordered by count", func(t *testing.T) {
		_, err := svc.Recommend(ctx, ids[2], "u1@example.com")
		require.NoError(t, err)
		_, err = svc.Recommend(ctx, ids[5], "u1@example.com")
		require.NoError(t, err)
		_, err = svc.Recommend(ctx, ids[5], "u2@example.com")
		require.NoError(t, err)

		page, err := svc.ListRecommended(ctx, models.PageRequest{Page: 1, Size: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, ids[5], page.Items[0].ID)
		assert.Equal(t, ids[2], page.Items[1].ID)
	})
}

func TestBoardService_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("grant then duplicate", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

		count, err := svc.Recommend(ctx, board.ID, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = svc.Recommend(ctx, board.ID, "bob@example.com")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyRecommended)

		stored, err := svc.GetByID(ctx, board.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.RecommendCount)
		assertCounterMatchesLedger(t, store, board.ID)
	})

	t.Run("unrecommend restores prior state", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

		_, err := svc.Recommend(ctx, board.ID, "bob@example.com")
		require.NoError(t, err)
		count, err := svc.Unrecommend(ctx, board.ID, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		ok, err := svc.HasUserRecommended(ctx, board.ID, "bob@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
		assertCounterMatchesLedger(t, store, board.ID)
	})

	t.Run("unrecommend without grant", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

		_, err := svc.Unrecommend(ctx, board.ID, "bob@example.com")
		assert.ErrorIs(t, err, apperrors.ErrNotRecommended)
		assertCounterMatchesLedger(t, store, board.ID)
	})

	t.Run("unknown board", func(t *testing.T) {
		svc, _, _ := newBoardService(t)
		_, err := svc.Recommend(ctx, 7, "bob@example.com")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = svc.Unrecommend(ctx, 7, "bob@example.com")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = svc.HasUserRecommended(ctx, 7, "bob@example.com")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("missing identity", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)
		_, err := svc.Recommend(ctx, board.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("concurrent grants by distinct users", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

		const users = 20
		var wg sync.WaitGroup
		errs := make(chan error, users)
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.Recommend(ctx, board.ID, fmt.Sprintf("user%d@example.com", i))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := svc.GetByID(ctx, board.ID)
		require.NoError(t, err)
		assert.Equal(t, users, stored.RecommendCount)
		assertCounterMatchesLedger(t, store, board.ID)
	})

	t.Run("concurrent duplicate grants by one user", func(t *testing.T) {
		svc, store, _ := newBoardService(t)
		board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

		const attempts = 10
		var wg sync.WaitGroup
		results := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Recommend(ctx, board.ID, "bob@example.com")
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrAlreadyRecommended)
		}
		assert.Equal(t, 1, succeeded)
		assertCounterMatchesLedger(t, store, board.ID)
	})
}

func TestBoardService_RecommendStatusAndReconcile(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newBoardService(t)
	board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

	_, err := svc.Recommend(ctx, board.ID, "bob@example.com")
	require.NoError(t, err)

	status, err := svc.RecommendStatus(ctx, board.ID)
	require.NoError(t, err)
	assert.True(t, status.InSync)
	assert.Equal(t, 1, status.RecommendCount)

	// simulate drift written behind the service's back
	require.NoError(t, store.Boards().SetRecommendCount(ctx, board.ID, 5))
	status, err = svc.RecommendStatus(ctx, board.ID)
	require.NoError(t, err)
	assert.False(t, status.InSync)
	assert.Equal(t, int64(1), status.LedgerCount)

	_, err = svc.ReconcileRecommendCount(ctx, board.ID, "bob@example.com")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	status, err = svc.RecommendStatus(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, status.RecommendCount)

	_, err = svc.ReconcileRecommendCount(ctx, board.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	status, err = svc.ReconcileRecommendCount(ctx, board.ID, "amy@example.com")
	require.NoError(t, err)
	assert.True(t, status.InSync)
	assert.Equal(t, 1, status.RecommendCount)
	assertCounterMatchesLedger(t, store, board.ID)

	_, err = svc.ReconcileRecommendCount(ctx, 999, "amy@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBoardService_UnrecommendClampsCounter(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newBoardService(t)
	board := testutil.SeedBoard(t, store, "amy@example.com", "t", models.CategoryWalk)

	// a ledger row with no matching counter increment
	require.NoError(t, store.Recommendations().Grant(ctx, board.ID, "bob@example.com"))

	count, err := svc.Unrecommend(ctx, board.ID, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := svc.GetByID(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RecommendCount)
}

func TestBoardLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newBoardService(t)
	comments := NewCommentService(store)
	testutil.SeedMember(t, store, "amy@example.com")
	testutil.SeedMember(t, store, "bob@example.com")

	board, err := svc.Create(ctx, "amy@example.com", BoardInput{Title: "Han river loop", Content: "5km", Category: models.CategoryWalk})
	require.NoError(t, err)
	assert.Equal(t, 0, board.RecommendCount)

	count, err := svc.Recommend(ctx, board.ID, "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	ok, err := svc.HasUserRecommended(ctx, board.ID, "u1@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	count, err = svc.Recommend(ctx, board.ID, "u2@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.Unrecommend(ctx, board.ID, "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	ok, err = svc.HasUserRecommended(ctx, board.ID, "u1@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assertCounterMatchesLedger(t, store, board.ID)

	_, err = comments.Create(ctx, "bob@example.com", board.ID, "nice route")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, board.ID))
	ledger, err := store.Recommendations().CountFor(ctx, board.ID)
	require.NoError(t, err)
	assert.Zero(t, ledger)
	_, err = comments.ListByBoard(ctx, board.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	leftover, err := store.Comments().ListByBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Empty(t, leftover)
}
