// internal/middleware/context_extractor.go
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyUserID    ContextKey = "user_id"
	ContextKeyUsername  ContextKey = "username"
	ContextKeyUserRole  ContextKey = "user_role"
)

// ClientInfoExtractor copies the caller's address and user agent into the
// request's user context so services can log them.
func ClientInfoExtractor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if ip := c.IP(); ip != "" {
			ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// GetIPAddressFromContext extracts IP address from context
func GetIPAddressFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyIPAddress).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgentFromContext extracts user agent from context
func GetUserAgentFromContext(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	return userID, ok
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ContextKeyUsername).(string)
	return username, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(ContextKeyUserRole).(string)
	return role, ok
}

// ClientInfo holds everything known about the caller of a request.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	UserID    string
	Username  string
	UserRole  string
}

// GetClientInfoFromContext extracts all client information from context
func GetClientInfoFromContext(ctx context.Context) *ClientInfo {
	info := &ClientInfo{
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
	}

	if userID, ok := GetUserIDFromContext(ctx); ok {
		info.UserID = userID
	}
	if username, ok := GetUsernameFromContext(ctx); ok {
		info.Username = username
	}
	if role, ok := GetUserRoleFromContext(ctx); ok {
		info.UserRole = role
	}

	return info
}
