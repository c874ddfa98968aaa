package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/models"
)

// ProgressRepository reads quiz attempts used to build leaderboard statistics.
type ProgressRepository interface {
	ListAttemptsByCourse(ctx context.Context, courseID string) ([]models.QuizAttempt, error)
	ListAttemptsByModule(ctx context.Context, moduleID string) ([]models.QuizAttempt, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs the progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) ListAttemptsByCourse(ctx context.Context, courseID string) ([]models.QuizAttempt, error) {
	query := r.db.WithContext(ctx).Model(&models.QuizAttempt{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	var attempts []models.QuizAttempt
	if err := query.Preload("Student").Order("created_at ASC, id ASC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *progressRepository) ListAttemptsByModule(ctx context.Context, moduleID string) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Preload("Student").
		Order("created_at ASC, id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
