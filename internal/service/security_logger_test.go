package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/pkg/security"
)

func TestSecurityLogger_IncludesClientInfo(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := context.WithValue(context.Background(), middleware.ContextKeyIPAddress, "10.0.0.7")
	ctx = context.WithValue(ctx, middleware.ContextKeyUserAgent, "cli/1.0")
	userID := uuid.New()
	taskID := uuid.New()

	sl.LogPermissionDenied(ctx, userID, ActionComplete, taskID)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, security.EventTypePermissionDenied, entry["event_type"])
	assert.Equal(t, "10.0.0.7", entry["ip_address"])
	assert.Equal(t, "cli/1.0", entry["user_agent"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "security", entry["component"])
	assert.Contains(t, entry["msg"], taskID.String())
}

func TestSecurityLogger_IncludesAuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	userID := uuid.New()
	ctx := context.WithValue(context.Background(), middleware.ContextKeyUserID, userID.String())
	ctx = context.WithValue(ctx, middleware.ContextKeyUsername, "bob")
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, "completer")

	sl.LogSystemFromContext(ctx, security.EventTypeSuspiciousActivity, "odd request", security.SeverityHigh)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bob", entry["username"])
	assert.Equal(t, "completer", entry["role"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestSecurityLogger_UnknownEventBecomesAlert(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	sl.LogSystemFromContext(context.Background(), "made_up", "odd", "extreme")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, security.EventTypeSecurityAlert, entry["event_type"])
	assert.Equal(t, "WARN", entry["level"])
}
