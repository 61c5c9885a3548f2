// internal/service/security_logger.go
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/pkg/security"
)

// SecurityLogger writes authentication and authorization events together
// with the client information found in the request context.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityLogger{
		logger: logger.With("component", "security"),
	}
}

// LogFromContext logs a security event using context information
func (sl *SecurityLogger) LogFromContext(ctx context.Context, userID uuid.UUID, eventType, description, severity string) {
	sl.log(ctx, eventType, description, severity, slog.String("user_id", userID.String()))
}

// LogSystemFromContext logs an event that is not tied to a known user. The
// authenticated caller, if any, is still recorded.
func (sl *SecurityLogger) LogSystemFromContext(ctx context.Context, eventType, description, severity string) {
	var extra []slog.Attr
	if userID := middleware.GetClientInfoFromContext(ctx).UserID; userID != "" {
		extra = append(extra, slog.String("user_id", userID))
	}
	sl.log(ctx, eventType, description, severity, extra...)
}

func (sl *SecurityLogger) log(ctx context.Context, eventType, description, severity string, extra ...slog.Attr) {
	level, err := security.ParseSeverity(severity)
	if err != nil {
		level = slog.LevelWarn
	}
	if !security.IsValidEventType(eventType) {
		eventType = security.EventTypeSecurityAlert
	}

	clientInfo := middleware.GetClientInfoFromContext(ctx)
	attrs := []slog.Attr{
		slog.String("event_type", eventType),
		slog.String("severity", severity),
		slog.String("ip_address", clientInfo.IPAddress),
		slog.String("user_agent", clientInfo.UserAgent),
	}
	if clientInfo.Username != "" {
		attrs = append(attrs, slog.String("username", clientInfo.Username))
	}
	if clientInfo.UserRole != "" {
		attrs = append(attrs, slog.String("role", clientInfo.UserRole))
	}
	attrs = append(attrs, extra...)

	sl.logger.LogAttrs(ctx, level, description, attrs...)
}

// Convenience methods for common security events

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLoginSuccess,
		"User successfully logged in", security.SeverityLow)
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, username, reason string) {
	sl.LogSystemFromContext(ctx, security.EventTypeLoginFailed,
		"Login failed for "+username+": "+reason, security.SeverityMedium)
}

func (sl *SecurityLogger) LogTokenRefreshed(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeTokenRefreshed,
		"Access token refreshed", security.SeverityLow)
}

func (sl *SecurityLogger) LogUserRegistered(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeUserRegistered,
		"User registered", security.SeverityLow)
}

func (sl *SecurityLogger) LogAccountUpdated(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeAccountUpdated,
		"Account details changed", security.SeverityLow)
}

func (sl *SecurityLogger) LogAccountDeleted(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeAccountDeleted,
		"Account deleted, tasks moved to the deleted user", security.SeverityMedium)
}

func (sl *SecurityLogger) LogPermissionDenied(ctx context.Context, userID uuid.UUID, action Action, taskID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypePermissionDenied,
		"Permission denied: "+string(action)+" task "+taskID.String(), security.SeverityMedium)
}

func (sl *SecurityLogger) LogTaskCompleted(ctx context.Context, userID, taskID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeTaskCompleted,
		"Task "+taskID.String()+" completed", security.SeverityLow)
}

func (sl *SecurityLogger) LogSuspiciousActivity(ctx context.Context, userID uuid.UUID, description string) {
	sl.LogFromContext(ctx, userID, security.EventTypeSuspiciousActivity,
		description, security.SeverityHigh)
}
