package dto

import (
	"time"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
)

// ActivationStatusResponse describes a module's evaluated availability.
type ActivationStatusResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Icon          string `json:"icon"`
	DaysRemaining int    `json:"days_remaining,omitempty"`
}

// ModuleActivationResponse is the admin view of one module's activation.
type ModuleActivationResponse struct {
	ModuleID              string                   `json:"module_id"`
	CourseID              string                   `json:"course_id"`
	Title                 string                   `json:"title"`
	Sequence              int                      `json:"sequence"`
	IsFirst               bool                     `json:"is_first"`
	Initialized           bool                     `json:"initialized"`
	IsActive              bool                     `json:"is_active"`
	Accessible            bool                     `json:"accessible"`
	Deprecated            bool                     `json:"deprecated"`
	ActivatedBy           *string                  `json:"activated_by"`
	ActivatedAt           *time.Time               `json:"activated_at"`
	DeactivatedBy         *string                  `json:"deactivated_by"`
	DeactivatedAt         *time.Time               `json:"deactivated_at"`
	Reason                string                   `json:"reason"`
	ScheduledActivation   *time.Time               `json:"scheduled_activation"`
	ScheduledDeactivation *time.Time               `json:"scheduled_deactivation"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
	Status                ActivationStatusResponse `json:"status"`
}

// ModuleActivationListResponse wraps the activation listing of a course.
type ModuleActivationListResponse struct {
	CourseID    string                     `json:"course_id,omitempty"`
	Items       []ModuleActivationResponse `json:"items"`
	EvaluatedAt time.Time                  `json:"evaluated_at"`
	CacheHit    bool                       `json:"cache_hit"`
}

// ModuleAccessResponse is the student-facing availability of a module.
type ModuleAccessResponse struct {
	ModuleID   string                   `json:"module_id"`
	Accessible bool                     `json:"accessible"`
	Status     ActivationStatusResponse `json:"status"`
}

// ActivationChangeRequest carries the reason for a manual transition.
type ActivationChangeRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ActivationScheduleRequest schedules a future transition.
type ActivationScheduleRequest struct {
	When   Timestamp `json:"when"`
	Reason string    `json:"reason" validate:"omitempty,max=500"`
}

// ModuleMeta is the catalog data shown alongside an activation.
type ModuleMeta struct {
	Title    string
	Sequence int
	IsFirst  bool
}

// NewActivationStatusResponse converts an evaluated status.
func NewActivationStatusResponse(info activation.StatusInfo) ActivationStatusResponse {
	return ActivationStatusResponse{
		Status:        string(info.Status),
		Message:       info.Message,
		Icon:          info.Icon,
		DaysRemaining: info.DaysRemaining,
	}
}

// NewModuleActivationResponse evaluates record at now and builds the admin view.
func NewModuleActivationResponse(record activation.Record, meta ModuleMeta, initialized bool, now time.Time) ModuleActivationResponse {
	return ModuleActivationResponse{
		ModuleID:              record.ModuleID,
		CourseID:              record.CourseID,
		Title:                 meta.Title,
		Sequence:              meta.Sequence,
		IsFirst:               meta.IsFirst,
		Initialized:           initialized,
		IsActive:              record.IsActive,
		Accessible:            activation.IsCurrentlyActive(&record, now),
		Deprecated:            record.Deprecated,
		ActivatedBy:           record.ActivatedBy,
		ActivatedAt:           record.ActivatedAt,
		DeactivatedBy:         record.DeactivatedBy,
		DeactivatedAt:         record.DeactivatedAt,
		Reason:                record.Reason,
		ScheduledActivation:   record.ScheduledActivation,
		ScheduledDeactivation: record.ScheduledDeactivation,
		CreatedAt:             record.CreatedAt,
		UpdatedAt:             record.UpdatedAt,
		Status:                NewActivationStatusResponse(activation.ClassifyStatus(&record, now)),
	}
}

// ActivationEvent announces a committed transition to dashboards.
type ActivationEvent struct {
	Transition string                   `json:"transition"`
	ModuleID   string                   `json:"module_id"`
	CourseID   string                   `json:"course_id"`
	Actor      string                   `json:"actor"`
	Module     ModuleActivationResponse `json:"module"`
	OccurredAt time.Time                `json:"occurred_at"`
}
