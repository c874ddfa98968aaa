package service

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/ranking"
)

const perfectScore = 100

// moduleProgress accumulates one student's attempts on one module.
type moduleProgress struct {
	best        int
	attempts    int
	lastAttempt time.Time
}

func (p *moduleProgress) add(attempt models.QuizAttempt) {
	p.attempts++
	if attempt.Score > p.best {
		p.best = attempt.Score
	}
	if attempt.CreatedAt.After(p.lastAttempt) {
		p.lastAttempt = attempt.CreatedAt
	}
}

func classifyModule(best, attempts, passingScore int) ranking.ModuleStatus {
	switch {
	case attempts == 0:
		return ranking.ModuleNotStarted
	case best >= perfectScore:
		return ranking.ModulePerfect
	case best >= passingScore:
		return ranking.ModuleCompleted
	default:
		return ranking.ModuleInProgress
	}
}

// aggregateStudentStats folds quiz attempts into one StudentStat per student
// with at least one attempt, ordered by student id. Progress is measured
// against the catalog modules of every course the student attempted.
func aggregateStudentStats(attempts []models.QuizAttempt, moduleCounts map[string]int64, passingScore int) []ranking.StudentStat {
	type studentProgress struct {
		name    string
		quizzes int
		courses map[string]struct{}
		modules map[string]*moduleProgress
	}

	byStudent := make(map[uint]*studentProgress)
	for _, attempt := range attempts {
		progress, ok := byStudent[attempt.StudentID]
		if !ok {
			progress = &studentProgress{
				name:    attempt.Student.Name,
				courses: make(map[string]struct{}),
				modules: make(map[string]*moduleProgress),
			}
			byStudent[attempt.StudentID] = progress
		}
		progress.quizzes++
		progress.courses[attempt.CourseID] = struct{}{}

		module, ok := progress.modules[attempt.ModuleID]
		if !ok {
			module = &moduleProgress{}
			progress.modules[attempt.ModuleID] = module
		}
		module.add(attempt)
	}

	ids := make([]uint, 0, len(byStudent))
	for id := range byStudent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stats := make([]ranking.StudentStat, 0, len(ids))
	for _, id := range ids {
		progress := byStudent[id]

		totalBest := 0
		completed := 0
		for _, module := range progress.modules {
			totalBest += module.best
			status := classifyModule(module.best, module.attempts, passingScore)
			if status == ranking.ModuleCompleted || status == ranking.ModulePerfect {
				completed++
			}
		}

		var moduleCount int64
		for courseID := range progress.courses {
			moduleCount += moduleCounts[courseID]
		}

		average := 0
		if len(progress.modules) > 0 {
			average = int(math.Round(float64(totalBest) / float64(len(progress.modules))))
		}

		stats = append(stats, ranking.StudentStat{
			StudentID:             strconv.FormatUint(uint64(id), 10),
			Name:                  progress.name,
			AverageScore:          average,
			TotalQuizzesTaken:     progress.quizzes,
			TotalModulesCompleted: completed,
			Progress:              courseProgress(completed, moduleCount),
		})
	}

	return stats
}

// aggregateModuleStats folds one module's quiz attempts into one ModuleStat per
// student, ordered by student id.
func aggregateModuleStats(moduleID string, attempts []models.QuizAttempt, passingScore int) []ranking.ModuleStat {
	byStudent := make(map[uint]*moduleProgress)
	names := make(map[uint]string)
	for _, attempt := range attempts {
		if attempt.ModuleID != moduleID {
			continue
		}
		progress, ok := byStudent[attempt.StudentID]
		if !ok {
			progress = &moduleProgress{}
			byStudent[attempt.StudentID] = progress
			names[attempt.StudentID] = attempt.Student.Name
		}
		progress.add(attempt)
	}

	ids := make([]uint, 0, len(byStudent))
	for id := range byStudent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stats := make([]ranking.ModuleStat, 0, len(ids))
	for _, id := range ids {
		progress := byStudent[id]
		var last *time.Time
		if !progress.lastAttempt.IsZero() {
			value := progress.lastAttempt.UTC()
			last = &value
		}
		stats = append(stats, ranking.ModuleStat{
			StudentID:       strconv.FormatUint(uint64(id), 10),
			Name:            names[id],
			ModuleID:        moduleID,
			BestScore:       progress.best,
			Attempts:        progress.attempts,
			Status:          classifyModule(progress.best, progress.attempts, passingScore),
			LastAttemptDate: last,
		})
	}
	return stats
}

func courseProgress(completed int, moduleCount int64) int {
	if moduleCount <= 0 {
		return 0
	}
	progress := int(math.Round(float64(completed) * 100 / float64(moduleCount)))
	if progress > 100 {
		return 100
	}
	return progress
}
