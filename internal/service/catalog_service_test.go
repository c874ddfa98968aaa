package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

func TestCatalogImportUpsertsModules(t *testing.T) {
	db := setupServiceDB(t, &models.Module{})
	cache, server := newTestRedis(t)
	activityRepo := &memoryActivityRepo{}

	svc := NewCatalogService(repository.NewModuleCatalogRepository(db), NewActivityService(activityRepo, testLogger()), cache, nil, testLogger())
	ctx := context.Background()

	server.Set(activationCachePrefix+"web", "{}")
	server.Set(leaderboardCachePrefix+"web:score:10", "{}")
	server.Set("unrelated", "keep")

	result, err := svc.Import(ctx, admin(), dto.CatalogImportRequest{Modules: []dto.CatalogModuleRequest{
		{ModuleID: "web-intro", CourseID: "web", Title: "Intro <b>to</b> the Web", Sequence: 1, IsFirst: true},
		{ModuleID: " web-html ", CourseID: "web", Title: "HTML Basics", Sequence: 2},
		{ModuleID: "go-intro", CourseID: "go", Title: "Hello Go", Sequence: 1, IsFirst: true},
	}})
	require.NoError(t, err)
	require.EqualValues(t, 3, result.Affected)
	require.Equal(t, []string{"go", "web"}, result.Courses)

	var intro models.Module
	require.NoError(t, db.Where("module_id = ?", "web-intro").First(&intro).Error)
	require.Equal(t, "Intro to the Web", intro.Title)

	var html models.Module
	require.NoError(t, db.Where("module_id = ?", "web-html").First(&html).Error)
	require.Equal(t, 2, html.Sequence)

	require.False(t, server.Exists(activationCachePrefix+"web"))
	require.False(t, server.Exists(leaderboardCachePrefix+"web:score:10"))
	require.True(t, server.Exists("unrelated"))

	require.Len(t, activityRepo.entries, 1)
	require.Equal(t, "catalog.imported", activityRepo.entries[0].Action)

	_, err = svc.Import(ctx, admin(), dto.CatalogImportRequest{Modules: []dto.CatalogModuleRequest{
		{ModuleID: "web-html", CourseID: "web", Title: "HTML Fundamentals", Sequence: 3},
	}})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Module{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
	require.NoError(t, db.Where("module_id = ?", "web-html").First(&html).Error)
	require.Equal(t, "HTML Fundamentals", html.Title)
	require.Equal(t, 3, html.Sequence)
}

func TestCatalogImportRejectsInconsistentBatches(t *testing.T) {
	db := setupServiceDB(t, &models.Module{})
	svc := NewCatalogService(repository.NewModuleCatalogRepository(db), nil, nil, nil, testLogger())
	ctx := context.Background()

	cases := []struct {
		name    string
		modules []dto.CatalogModuleRequest
	}{
		{
			name: "duplicate module",
			modules: []dto.CatalogModuleRequest{
				{ModuleID: "web-intro", CourseID: "web", Title: "A", Sequence: 1},
				{ModuleID: "web-intro", CourseID: "web", Title: "B", Sequence: 2},
			},
		},
		{
			name: "two first modules",
			modules: []dto.CatalogModuleRequest{
				{ModuleID: "web-intro", CourseID: "web", Title: "A", Sequence: 1, IsFirst: true},
				{ModuleID: "web-html", CourseID: "web", Title: "B", Sequence: 2, IsFirst: true},
			},
		},
		{
			name: "markup only title",
			modules: []dto.CatalogModuleRequest{
				{ModuleID: "web-intro", CourseID: "web", Title: "<script></script>", Sequence: 1},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Import(ctx, admin(), dto.CatalogImportRequest{Modules: tc.modules})
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Module{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCatalogImportValidatesFields(t *testing.T) {
	db := setupServiceDB(t, &models.Module{})
	svc := NewCatalogService(repository.NewModuleCatalogRepository(db), nil, nil, nil, testLogger())

	_, err := svc.Import(context.Background(), admin(), dto.CatalogImportRequest{})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	_, err = svc.Import(context.Background(), admin(), dto.CatalogImportRequest{Modules: []dto.CatalogModuleRequest{
		{ModuleID: "web-intro", CourseID: "web", Title: "Intro", Sequence: 0},
	}})
	require.ErrorAs(t, err, &validationErrors)
}
