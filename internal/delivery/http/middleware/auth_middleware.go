package middleware

import (
	"errors"
	"strings"

	"jobboard/internal/domain/identity"
	"jobboard/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const CtxActorKey = "actor"

type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		actor, err := m.Authenticate(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		c.Locals(CtxActorKey, actor)
		return c.Next()
	}
}

// Authenticate verifies an access token and returns the actor it names.
func (m *AuthMiddleware) Authenticate(token string) (identity.Actor, error) {
	claims, err := m.jwt.ValidateAccessToken(token)
	if err != nil {
		return identity.Actor{}, err
	}
	role, ok := identity.ParseRole(claims.Role)
	if !ok {
		return identity.Actor{}, jwt.ErrTokenInvalid
	}
	return identity.Actor{ID: claims.UserID, Role: role}, nil
}

// RequireRoles rejects actors whose role is not listed. It must run after the
// auth middleware.
func RequireRoles(roles ...identity.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFromCtx(c)
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return NewAppError(fiber.StatusForbidden, "Access denied", nil, nil)
	}
}

func ActorFromCtx(c fiber.Ctx) (identity.Actor, bool) {
	actor, ok := c.Locals(CtxActorKey).(identity.Actor)
	if !ok || actor.ID == uuid.Nil {
		return identity.Actor{}, false
	}
	return actor, true
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
