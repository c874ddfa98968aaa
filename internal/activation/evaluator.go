package activation

import (
	"fmt"
	"time"
)

// Status is the human facing classification of a module's availability.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusInactive     Status = "inactive"
	StatusScheduled    Status = "scheduled"
	StatusExpired      Status = "expired"
	StatusExpiringSoon Status = "expiring-soon"
	StatusActive       Status = "active"
)

// ExpiryWarningDays is how close a scheduled deactivation must be before the
// module is reported as expiring soon.
const ExpiryWarningDays = 7

const day = 24 * time.Hour

// displayLayout is used for dates embedded in status messages.
const displayLayout = "Jan 2, 2006 15:04 MST"

// StatusInfo describes a module's availability for display.
type StatusInfo struct {
	Status        Status
	Message       string
	Icon          string
	DaysRemaining int
}

// Accessible reports whether the status still lets students in.
func (s Status) Accessible() bool {
	return s == StatusActive || s == StatusExpiringSoon
}

// IsCurrentlyActive reports whether the module is reachable at now.
// A nil record is never active.
func IsCurrentlyActive(record *Record, now time.Time) bool {
	if record == nil || !record.IsActive {
		return false
	}
	if record.ScheduledActivation != nil && now.Before(*record.ScheduledActivation) {
		return false
	}
	if record.ScheduledDeactivation != nil && !now.Before(*record.ScheduledDeactivation) {
		return false
	}
	return true
}

// ClassifyStatus classifies record at now. Rules are checked in order and the
// first match wins; expiring-soon is still accessible.
func ClassifyStatus(record *Record, now time.Time) StatusInfo {
	if record == nil {
		return StatusInfo{Status: StatusUnknown, Message: "Activation status unknown", Icon: "help-circle"}
	}

	if !record.IsActive {
		message := "Module is inactive"
		if record.Deprecated {
			message = "Module is deprecated"
		}
		return StatusInfo{Status: StatusInactive, Message: message, Icon: "lock"}
	}

	if record.ScheduledActivation != nil && now.Before(*record.ScheduledActivation) {
		return StatusInfo{
			Status:  StatusScheduled,
			Message: fmt.Sprintf("Opens on %s", formatInstant(*record.ScheduledActivation, now)),
			Icon:    "calendar",
		}
	}

	if deadline := record.ScheduledDeactivation; deadline != nil {
		if !now.Before(*deadline) {
			return StatusInfo{
				Status:  StatusExpired,
				Message: fmt.Sprintf("Closed on %s", formatInstant(*deadline, now)),
				Icon:    "x-circle",
			}
		}

		days := daysUntil(*deadline, now)
		if days <= ExpiryWarningDays {
			return StatusInfo{
				Status:        StatusExpiringSoon,
				Message:       fmt.Sprintf("Closes in %d %s", days, pluralDays(days)),
				Icon:          "alert-triangle",
				DaysRemaining: days,
			}
		}
	}

	return StatusInfo{Status: StatusActive, Message: "Module is active", Icon: "check-circle"}
}

// daysUntil rounds the remaining time up to whole days. deadline must be after now.
func daysUntil(deadline, now time.Time) int {
	remaining := deadline.Sub(now)
	return int((remaining + day - 1) / day)
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

func formatInstant(t, now time.Time) string {
	return t.In(now.Location()).Format(displayLayout)
}
