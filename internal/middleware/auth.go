// internal/middleware/auth.go
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskboard/pkg/auth"
)

const claimsLocal = "claims"

// AuthMiddleware validates bearer access tokens on protected routes
type AuthMiddleware struct {
	tokenManager *auth.TokenManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokenManager *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{
		tokenManager: tokenManager,
	}
}

// Required rejects requests without a valid access token with 401 and
// otherwise stores the token claims on the request.
func (a *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := a.authenticate(c)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ContextKeyUsername, claims.Username)
		ctx = context.WithValue(ctx, ContextKeyUserRole, claims.Role)
		c.SetUserContext(ctx)
		c.Locals(claimsLocal, claims)

		return c.Next()
	}
}

// authenticate extracts and validates the JWT token from the Authorization header
func (a *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	token, err := auth.ExtractTokenFromHeader(header)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	claims, err := a.tokenManager.ValidateAccessToken(token)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	return claims, nil
}

// ClaimsFromCtx returns the claims stored by Required.
func ClaimsFromCtx(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsLocal).(*auth.Claims)
	return claims, ok
}

// RequesterID returns the authenticated user's ID.
func RequesterID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims, ok := ClaimsFromCtx(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := claims.UserUUID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
