package service

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/models"
)

var serviceBaseTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T, tables ...interface{}) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func seedCatalog(t *testing.T, db *gorm.DB) []models.Module {
	t.Helper()
	modules := []models.Module{
		{ModuleID: "web-intro", CourseID: "web", Title: "Intro to the Web", Sequence: 1, IsFirst: true},
		{ModuleID: "web-html", CourseID: "web", Title: "HTML Basics", Sequence: 2},
		{ModuleID: "web-css", CourseID: "web", Title: "Styling with CSS", Sequence: 3},
		{ModuleID: "go-intro", CourseID: "go", Title: "Hello Go", Sequence: 1, IsFirst: true},
	}
	require.NoError(t, db.Create(&modules).Error)
	return modules
}
