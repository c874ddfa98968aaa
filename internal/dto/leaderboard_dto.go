package dto

import (
	"time"

	"github.com/noah-isme/gema-curriculum-api/internal/ranking"
)

// LeaderboardRequest selects the student leaderboard to compute.
type LeaderboardRequest struct {
	CourseID string
	Sort     string
	Limit    int
}

// StudentRankResponse is one row of the student leaderboard.
type StudentRankResponse struct {
	Rank                  int    `json:"rank"`
	StudentID             string `json:"student_id"`
	Name                  string `json:"name"`
	AverageScore          int    `json:"average_score"`
	TotalQuizzesTaken     int    `json:"total_quizzes_taken"`
	TotalModulesCompleted int    `json:"total_modules_completed"`
	Progress              int    `json:"progress"`
}

// LeaderboardResponse wraps a ranked student list.
type LeaderboardResponse struct {
	CourseID    string                `json:"course_id,omitempty"`
	Sort        string                `json:"sort"`
	Items       []StudentRankResponse `json:"items"`
	GeneratedAt time.Time             `json:"generated_at"`
	CacheHit    bool                  `json:"cache_hit"`
}

// ModuleAttemptRankResponse is one row of a module leaderboard.
type ModuleAttemptRankResponse struct {
	Rank            int        `json:"rank"`
	StudentID       string     `json:"student_id"`
	Name            string     `json:"name"`
	BestScore       int        `json:"best_score"`
	Attempts        int        `json:"attempts"`
	Status          string     `json:"status"`
	LastAttemptDate *time.Time `json:"last_attempt_date"`
}

// ModuleLeaderboardResponse wraps a ranked module attempt list.
type ModuleLeaderboardResponse struct {
	ModuleID    string                      `json:"module_id"`
	Items       []ModuleAttemptRankResponse `json:"items"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// NewStudentRankResponses converts ranked students.
func NewStudentRankResponses(ranked []ranking.RankedStudent) []StudentRankResponse {
	items := make([]StudentRankResponse, 0, len(ranked))
	for _, entry := range ranked {
		items = append(items, StudentRankResponse{
			Rank:                  entry.Rank,
			StudentID:             entry.StudentID,
			Name:                  entry.Name,
			AverageScore:          entry.AverageScore,
			TotalQuizzesTaken:     entry.TotalQuizzesTaken,
			TotalModulesCompleted: entry.TotalModulesCompleted,
			Progress:              entry.Progress,
		})
	}
	return items
}

// NewModuleAttemptRankResponses converts ranked module attempts.
func NewModuleAttemptRankResponses(ranked []ranking.RankedAttempt) []ModuleAttemptRankResponse {
	items := make([]ModuleAttemptRankResponse, 0, len(ranked))
	for _, entry := range ranked {
		items = append(items, ModuleAttemptRankResponse{
			Rank:            entry.Rank,
			StudentID:       entry.StudentID,
			Name:            entry.Name,
			BestScore:       entry.BestScore,
			Attempts:        entry.Attempts,
			Status:          string(entry.Status),
			LastAttemptDate: entry.LastAttemptDate,
		})
	}
	return items
}
