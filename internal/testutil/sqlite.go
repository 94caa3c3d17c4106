// Package testutil provides throwaway databases for unit tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory database with the schema migrated.
// A single connection keeps every transaction serialized, the way the row
// lock serializes them on postgres.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.Migrate(db))
	return db
}

// NewStore returns a Store over a fresh in-memory database
func NewStore(t testing.TB) (*repositories.PostgresStore, *gorm.DB) {
	t.Helper()
	db := NewSQLiteDB(t)
	return repositories.NewPostgresStore(db), db
}

// SeedMember inserts a member with the given email
func SeedMember(t testing.TB, store repositories.Store, email string) *models.Member {
	t.Helper()
	member := &models.Member{Email: email, Nickname: "member"}
	require.NoError(t, store.Members().Create(context.Background(), member))
	return member
}

// SeedBoard inserts a board written by writer
func SeedBoard(t testing.TB, store repositories.Store, writer, title string, category models.Category) *models.Board {
	t.Helper()
	board := &models.Board{Title: title, Content: "content of " + title, Category: category, Writer: writer}
	require.NoError(t, store.Boards().Create(context.Background(), board))
	return board
}
