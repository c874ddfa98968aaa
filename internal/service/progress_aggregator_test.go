package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/ranking"
)

func attempt(studentID uint, name, moduleID string, score int, at time.Time) models.QuizAttempt {
	return models.QuizAttempt{
		StudentID: studentID,
		ModuleID:  moduleID,
		CourseID:  "web",
		Score:     score,
		CreatedAt: at,
		Student:   models.Student{ID: studentID, Name: name},
	}
}

func TestClassifyModule(t *testing.T) {
	cases := []struct {
		best     int
		attempts int
		want     ranking.ModuleStatus
	}{
		{best: 0, attempts: 0, want: ranking.ModuleNotStarted},
		{best: 0, attempts: 2, want: ranking.ModuleInProgress},
		{best: 69, attempts: 1, want: ranking.ModuleInProgress},
		{best: 70, attempts: 1, want: ranking.ModuleCompleted},
		{best: 99, attempts: 3, want: ranking.ModuleCompleted},
		{best: 100, attempts: 1, want: ranking.ModulePerfect},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, classifyModule(tc.best, tc.attempts, 70), "best=%d attempts=%d", tc.best, tc.attempts)
	}
}

func TestCourseProgress(t *testing.T) {
	require.Equal(t, 0, courseProgress(3, 0))
	require.Equal(t, 33, courseProgress(1, 3))
	require.Equal(t, 67, courseProgress(2, 3))
	require.Equal(t, 100, courseProgress(5, 3))
}

func TestAggregateStudentStats(t *testing.T) {
	at := serviceBaseTime
	attempts := []models.QuizAttempt{
		attempt(2, "Bima", "web-intro", 100, at),
		attempt(1, "Ayu", "web-intro", 80, at),
		attempt(1, "Ayu", "web-intro", 95, at.Add(time.Hour)),
		attempt(1, "Ayu", "web-html", 60, at.Add(2*time.Hour)),
		attempt(2, "Bima", "web-html", 100, at.Add(time.Hour)),
		attempt(3, "Citra", "web-intro", 0, at),
	}

	stats := aggregateStudentStats(attempts, map[string]int64{"web": 3}, 70)
	require.Equal(t, []ranking.StudentStat{
		{StudentID: "1", Name: "Ayu", AverageScore: 78, TotalQuizzesTaken: 3, TotalModulesCompleted: 1, Progress: 33},
		{StudentID: "2", Name: "Bima", AverageScore: 100, TotalQuizzesTaken: 2, TotalModulesCompleted: 2, Progress: 67},
		{StudentID: "3", Name: "Citra", AverageScore: 0, TotalQuizzesTaken: 1, TotalModulesCompleted: 0, Progress: 0},
	}, stats)
}

func TestAggregateStudentStatsAcrossCourses(t *testing.T) {
	at := serviceBaseTime
	goIntro := attempt(1, "Ayu", "go-intro", 100, at)
	goIntro.CourseID = "go"
	attempts := []models.QuizAttempt{
		attempt(1, "Ayu", "web-intro", 90, at),
		goIntro,
		attempt(2, "Bima", "web-intro", 90, at),
	}

	stats := aggregateStudentStats(attempts, map[string]int64{"web": 3, "go": 1, "python": 6}, 70)
	require.Len(t, stats, 2)
	require.Equal(t, 50, stats[0].Progress)
	require.Equal(t, 33, stats[1].Progress)
}

func TestAggregateModuleStats(t *testing.T) {
	at := serviceBaseTime
	attempts := []models.QuizAttempt{
		attempt(1, "Ayu", "web-intro", 80, at),
		attempt(1, "Ayu", "web-intro", 95, at.Add(time.Hour)),
		attempt(2, "Bima", "web-intro", 100, at),
		attempt(2, "Bima", "web-html", 40, at.Add(3*time.Hour)),
	}

	stats := aggregateModuleStats("web-intro", attempts, 70)
	require.Len(t, stats, 2)

	require.Equal(t, "1", stats[0].StudentID)
	require.Equal(t, 95, stats[0].BestScore)
	require.Equal(t, 2, stats[0].Attempts)
	require.Equal(t, ranking.ModuleCompleted, stats[0].Status)
	require.True(t, at.Add(time.Hour).Equal(*stats[0].LastAttemptDate))

	require.Equal(t, "2", stats[1].StudentID)
	require.Equal(t, ranking.ModulePerfect, stats[1].Status)
	require.Equal(t, 1, stats[1].Attempts)
}
