// Package ranking orders students and module attempts for leaderboard display.
//
// Ranks are positional: they run 1..N in output order and ties never share a
// number. Sorting is stable, so keys without a tie-break keep input order.
package ranking

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrUnknownSortKey indicates a sort key outside the supported set.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey selects the metric students are ranked by.
type SortKey string

const (
	SortByScore    SortKey = "score"
	SortByAttempts SortKey = "attempts"
	SortByModules  SortKey = "modules"
	SortByProgress SortKey = "progress"
)

// ParseSortKey normalizes raw into a SortKey. Empty input selects SortByScore.
func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortByScore:
		return SortByScore, nil
	case SortByAttempts:
		return SortByAttempts, nil
	case SortByModules:
		return SortByModules, nil
	case SortByProgress:
		return SortByProgress, nil
	default:
		return "", ErrUnknownSortKey
	}
}

// StudentStat is the aggregate progress of one student.
type StudentStat struct {
	StudentID             string
	Name                  string
	AverageScore          int
	TotalQuizzesTaken     int
	TotalModulesCompleted int
	Progress              int
}

// RankedStudent pairs a StudentStat with its leaderboard position.
type RankedStudent struct {
	Rank int
	StudentStat
}

// ModuleStatus summarizes a student's standing on one module.
type ModuleStatus string

const (
	ModuleNotStarted ModuleStatus = "not_started"
	ModuleInProgress ModuleStatus = "in_progress"
	ModuleCompleted  ModuleStatus = "completed"
	ModulePerfect    ModuleStatus = "perfect"
)

// ModuleStat is one student's record on one module.
type ModuleStat struct {
	StudentID       string
	Name            string
	ModuleID        string
	BestScore       int
	Attempts        int
	Status          ModuleStatus
	LastAttemptDate *time.Time
}

// RankedAttempt pairs a ModuleStat with its leaderboard position.
type RankedAttempt struct {
	Rank int
	ModuleStat
}

// RankStudents returns stats ordered by key, descending. An unrecognized key
// ranks by score. The input slice is not modified.
func RankStudents(stats []StudentStat, key SortKey) []RankedStudent {
	ordered := append([]StudentStat(nil), stats...)
	less := studentComparator(key)
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	ranked := make([]RankedStudent, len(ordered))
	for i, stat := range ordered {
		ranked[i] = RankedStudent{Rank: i + 1, StudentStat: stat}
	}
	return ranked
}

func studentComparator(key SortKey) func(a, b StudentStat) bool {
	switch key {
	case SortByAttempts:
		return func(a, b StudentStat) bool {
			return a.TotalQuizzesTaken > b.TotalQuizzesTaken
		}
	case SortByModules:
		return func(a, b StudentStat) bool {
			if a.TotalModulesCompleted != b.TotalModulesCompleted {
				return a.TotalModulesCompleted > b.TotalModulesCompleted
			}
			return a.AverageScore > b.AverageScore
		}
	case SortByProgress:
		return func(a, b StudentStat) bool {
			return a.Progress > b.Progress
		}
	default:
		return func(a, b StudentStat) bool {
			if a.AverageScore != b.AverageScore {
				return a.AverageScore > b.AverageScore
			}
			return a.TotalQuizzesTaken > b.TotalQuizzesTaken
		}
	}
}

// RankModuleAttempts ranks attempted entries by best score, then by fewest
// attempts. Entries with a zero best score are left out entirely.
func RankModuleAttempts(stats []ModuleStat) []RankedAttempt {
	ordered := make([]ModuleStat, 0, len(stats))
	for _, stat := range stats {
		if stat.BestScore > 0 {
			ordered = append(ordered, stat)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BestScore != ordered[j].BestScore {
			return ordered[i].BestScore > ordered[j].BestScore
		}
		return ordered[i].Attempts < ordered[j].Attempts
	})

	ranked := make([]RankedAttempt, len(ordered))
	for i, stat := range ordered {
		ranked[i] = RankedAttempt{Rank: i + 1, ModuleStat: stat}
	}
	return ranked
}

// Top truncates ranked to at most limit entries. A non-positive limit keeps all.
func Top[T any](ranked []T, limit int) []T {
	if limit <= 0 || limit >= len(ranked) {
		return ranked
	}
	return ranked[:limit]
}
