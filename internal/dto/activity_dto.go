package dto

import (
	"time"

	"github.com/noah-isme/gema-curriculum-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// AdminActivityListRequest filters the audit trail.
type AdminActivityListRequest struct {
	Page          int
	PageSize      int
	ActorID       string
	Action        string
	EntityType    string
	EntityID      string
	CorrelationID string
	Since         *time.Time
	Until         *time.Time
}

// AdminActivityResponse serializes one audit entry.
type AdminActivityResponse struct {
	ID            uint                   `json:"id"`
	ActorID       string                 `json:"actor_id"`
	ActorRole     string                 `json:"actor_role"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityID      string                 `json:"entity_id,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

// AdminActivityListResponse wraps a paginated audit listing.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewAdminActivityResponse converts an activity log row.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AdminActivityResponse{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		ActorRole:     entry.ActorRole,
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		CorrelationID: entry.CorrelationID,
		Metadata:      metadata,
		CreatedAt:     entry.CreatedAt,
	}
}

// ProvisionResponse reports a batch provisioning run.
type ProvisionResponse struct {
	Created []string  `json:"created"`
	Skipped []string  `json:"skipped"`
	RanAt   time.Time `json:"ran_at"`
}
