//go:build integration

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
	"github.com/onsil/backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newPostgresStore(t *testing.T) repositories.Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("onsil"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := gorm.Open(gormpg.Open(dsn), config.GormConfig())
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	return repositories.NewPostgresStore(db)
}

func TestRecommendUnderContentionOnPostgres(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)
	svc := NewBoardService(store, nil, testLimits)

	board := &models.Board{Title: "t", Content: "c", Category: models.CategoryWalk, Writer: "amy@example.com"}
	require.NoError(t, store.Boards().Create(ctx, board))

	const users = 30
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(2)
		user := fmt.Sprintf("user%d@example.com", i)
		go func() {
			defer wg.Done()
			_, _ = svc.Recommend(ctx, board.ID, user)
		}()
		// a duplicate attempt racing the first one
		go func() {
			defer wg.Done()
			_, _ = svc.Recommend(ctx, board.ID, user)
		}()
	}
	wg.Wait()

	status, err := svc.RecommendStatus(ctx, board.ID)
	require.NoError(t, err)
	assert.True(t, status.InSync)
	assert.Equal(t, users, status.RecommendCount)

	for i := 0; i < users; i += 2 {
		_, err := svc.Unrecommend(ctx, board.ID, fmt.Sprintf("user%d@example.com", i))
		require.NoError(t, err)
	}
	status, err = svc.RecommendStatus(ctx, board.ID)
	require.NoError(t, err)
	assert.True(t, status.InSync)
	assert.Equal(t, users/2, status.RecommendCount)
}
