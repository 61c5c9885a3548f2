// pkg/security/event_types.go
package security

import (
	"fmt"
	"log/slog"
)

// EventType constants for string-based event type handling
const (
	EventTypeLoginSuccess       = "login_success"
	EventTypeLoginFailed        = "login_failed"
	EventTypeTokenRefreshed     = "token_refreshed"
	EventTypeUserRegistered     = "user_registered"
	EventTypeAccountUpdated     = "account_updated"
	EventTypeAccountDeleted     = "account_deleted"
	EventTypePermissionDenied   = "permission_denied"
	EventTypeTaskCompleted      = "task_completed"
	EventTypeSecurityAlert      = "security_alert"
	EventTypeSuspiciousActivity = "suspicious_activity"
)

// Severity constants for string-based severity handling
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ParseSeverity maps a severity to the log level its events are written at.
func ParseSeverity(severity string) (slog.Level, error) {
	switch severity {
	case SeverityLow:
		return slog.LevelInfo, nil
	case SeverityMedium:
		return slog.LevelWarn, nil
	case SeverityHigh, SeverityCritical:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown severity: %s", severity)
	}
}

// ValidEventTypes returns all valid event type strings
func ValidEventTypes() []string {
	return []string{
		EventTypeLoginSuccess,
		EventTypeLoginFailed,
		EventTypeTokenRefreshed,
		EventTypeUserRegistered,
		EventTypeAccountUpdated,
		EventTypeAccountDeleted,
		EventTypePermissionDenied,
		EventTypeTaskCompleted,
		EventTypeSecurityAlert,
		EventTypeSuspiciousActivity,
	}
}

// IsValidEventType checks if the event type string is valid
func IsValidEventType(eventType string) bool {
	for _, t := range ValidEventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// IsValidSeverity checks if the severity string is valid
func IsValidSeverity(severity string) bool {
	_, err := ParseSeverity(severity)
	return err == nil
}
