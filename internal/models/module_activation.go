package models

import "time"

// ModuleActivation stores the activation state of a module. ModuleID is the
// record identity and is never updated after creation.
type ModuleActivation struct {
	ID                    uint       `gorm:"primaryKey"`
	ModuleID              string     `gorm:"size:120;uniqueIndex;not null"`
	CourseID              string     `gorm:"size:120;index;not null"`
	IsActive              bool       `gorm:"not null;default:false"`
	ActivatedBy           *string    `gorm:"size:120"`
	ActivatedAt           *time.Time
	DeactivatedBy         *string    `gorm:"size:120"`
	DeactivatedAt         *time.Time
	Reason                string     `gorm:"type:text"`
	ScheduledActivation   *time.Time `gorm:"index"`
	ScheduledDeactivation *time.Time `gorm:"index"`
	Deprecated            bool       `gorm:"not null;default:false"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
