package models

import "time"

// Student represents a learner taking module quizzes.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuizAttempt is one scored attempt at a module quiz.
type QuizAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index;not null" json:"student_id"`
	ModuleID  string    `gorm:"size:120;index;not null" json:"module_id"`
	CourseID  string    `gorm:"size:120;index;not null" json:"course_id"`
	Score     int       `gorm:"not null" json:"score"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Student   Student   `gorm:"foreignKey:StudentID" json:"-"`
}
