package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/ranking"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

func seedAttempts(t *testing.T, db *gorm.DB) {
	t.Helper()
	students := []models.Student{
		{Name: "Ayu", Email: "ayu@example.com"},
		{Name: "Bima", Email: "bima@example.com"},
		{Name: "Citra", Email: "citra@example.com"},
	}
	require.NoError(t, db.Create(&students).Error)

	at := serviceBaseTime
	attempts := []models.QuizAttempt{
		{StudentID: students[0].ID, ModuleID: "web-intro", CourseID: "web", Score: 80, CreatedAt: at},
		{StudentID: students[0].ID, ModuleID: "web-intro", CourseID: "web", Score: 95, CreatedAt: at.Add(time.Hour)},
		{StudentID: students[0].ID, ModuleID: "web-html", CourseID: "web", Score: 60, CreatedAt: at.Add(2 * time.Hour)},
		{StudentID: students[1].ID, ModuleID: "web-intro", CourseID: "web", Score: 100, CreatedAt: at},
		{StudentID: students[1].ID, ModuleID: "web-html", CourseID: "web", Score: 100, CreatedAt: at.Add(time.Hour)},
		{StudentID: students[2].ID, ModuleID: "web-intro", CourseID: "web", Score: 0, CreatedAt: at},
		{StudentID: students[2].ID, ModuleID: "go-intro", CourseID: "go", Score: 90, CreatedAt: at},
	}
	require.NoError(t, db.Create(&attempts).Error)
}

func newLeaderboardFixture(t *testing.T, withCache bool) LeaderboardService {
	t.Helper()
	db := setupServiceDB(t, &models.Module{}, &models.Student{}, &models.QuizAttempt{})
	seedCatalog(t, db)
	seedAttempts(t, db)

	cache, _ := newTestRedis(t)
	if !withCache {
		cache = nil
	}

	svc := NewLeaderboardService(
		repository.NewProgressRepository(db),
		repository.NewModuleCatalogRepository(db),
		cache,
		time.Minute,
		70,
		testLogger(),
	)
	svc.(*leaderboardService).now = func() time.Time { return serviceBaseTime }
	return svc
}

func names(items []dto.StudentRankResponse) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestLeaderboardStudentsByScore(t *testing.T) {
	svc := newLeaderboardFixture(t, false)

	result, err := svc.Students(context.Background(), dto.LeaderboardRequest{CourseID: "web"})
	require.NoError(t, err)
	require.Equal(t, "score", result.Sort)
	require.Equal(t, []string{"Bima", "Ayu", "Citra"}, names(result.Items))

	for i, item := range result.Items {
		require.Equal(t, i+1, item.Rank)
	}

	ayu := result.Items[1]
	require.Equal(t, 78, ayu.AverageScore)
	require.Equal(t, 3, ayu.TotalQuizzesTaken)
	require.Equal(t, 1, ayu.TotalModulesCompleted)
	require.Equal(t, 33, ayu.Progress)
	require.Equal(t, 67, result.Items[0].Progress)
}

func TestLeaderboardStudentsByAttemptsWithLimit(t *testing.T) {
	svc := newLeaderboardFixture(t, false)

	result, err := svc.Students(context.Background(), dto.LeaderboardRequest{CourseID: "web", Sort: "Attempts", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, "attempts", result.Sort)
	require.Equal(t, []string{"Ayu", "Bima"}, names(result.Items))
}

func TestLeaderboardStudentsProgressAcrossCourses(t *testing.T) {
	svc := newLeaderboardFixture(t, false)

	result, err := svc.Students(context.Background(), dto.LeaderboardRequest{Sort: "progress"})
	require.NoError(t, err)
	require.Empty(t, result.CourseID)
	require.Equal(t, []string{"Bima", "Ayu", "Citra"}, names(result.Items))

	require.Equal(t, 67, result.Items[0].Progress)
	require.Equal(t, 2, result.Items[0].TotalModulesCompleted)
	require.Equal(t, 33, result.Items[1].Progress)
	// web (3 modules) plus go (1 module), with only go-intro passed.
	require.Equal(t, 25, result.Items[2].Progress)
	require.Equal(t, 1, result.Items[2].TotalModulesCompleted)
}

func TestLeaderboardStudentsRejectsUnknownSort(t *testing.T) {
	svc := newLeaderboardFixture(t, false)

	_, err := svc.Students(context.Background(), dto.LeaderboardRequest{CourseID: "web", Sort: "speed"})
	require.ErrorIs(t, err, ranking.ErrUnknownSortKey)
}

func TestLeaderboardStudentsCachesPerRequest(t *testing.T) {
	svc := newLeaderboardFixture(t, true)
	ctx := context.Background()

	first, err := svc.Students(ctx, dto.LeaderboardRequest{CourseID: "web", Sort: "modules"})
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := svc.Students(ctx, dto.LeaderboardRequest{CourseID: "web", Sort: "modules"})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, names(first.Items), names(second.Items))

	other, err := svc.Students(ctx, dto.LeaderboardRequest{CourseID: "web", Sort: "progress"})
	require.NoError(t, err)
	require.False(t, other.CacheHit)
}

func TestLeaderboardModuleExcludesZeroScores(t *testing.T) {
	svc := newLeaderboardFixture(t, false)

	result, err := svc.Module(context.Background(), "web-intro", 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	require.Equal(t, "Bima", result.Items[0].Name)
	require.Equal(t, 100, result.Items[0].BestScore)
	require.Equal(t, "perfect", result.Items[0].Status)

	require.Equal(t, "Ayu", result.Items[1].Name)
	require.Equal(t, 2, result.Items[1].Rank)
	require.Equal(t, 2, result.Items[1].Attempts)
	require.Equal(t, "completed", result.Items[1].Status)
}

func TestLeaderboardModuleUnknown(t *testing.T) {
	svc := newLeaderboardFixture(t, false)

	_, err := svc.Module(context.Background(), "missing", 10)
	require.ErrorIs(t, err, activation.ErrNotFound)
}
