package models

import "time"

// Module is a catalog entry describing one gated unit of curriculum content.
type Module struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ModuleID  string    `gorm:"size:120;uniqueIndex;not null" json:"module_id"`
	CourseID  string    `gorm:"size:120;index;not null" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Sequence  int       `gorm:"index" json:"sequence"`
	IsFirst   bool      `gorm:"not null;default:false" json:"is_first"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
