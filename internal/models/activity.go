package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one entry of the curriculum audit trail. Every lifecycle
// transition, provisioning run and catalog import writes one.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorID       string            `gorm:"size:120;not null;index:idx_activity_actor" json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID      string            `gorm:"size:120;index:idx_activity_entity,priority:2" json:"entity_id"`
	CorrelationID string            `gorm:"size:64;index" json:"correlation_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}
