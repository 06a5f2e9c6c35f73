package auth

import (
	"fmt"
	"strings"

	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey     = "user_id"
	CtxUserRoleKey   = "user_role"
	CtxUserEmailKey  = "user_email"
	CtxSchoolSiteKey = "school_site"
)

// Actor is the authenticated caller performing an operation.
type Actor struct {
	UserID     uuid.UUID
	Email      string
	Role       models.UserRole
	SchoolSite *models.SchoolSite
}

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUserEmailKey, claims.Email)
		c.Locals(CtxSchoolSiteKey, claims.SchoolSite)

		return c.Next()
	}
}

func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role missing from token")
		}

		if models.HasRole(allowedRoles, role) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "you are not allowed to perform this action")
	}
}

// ActorFrom reads the caller set by JWTMiddleware.
func ActorFrom(c *fiber.Ctx) (Actor, error) {
	id, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "unauthenticated")
	}
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	email, _ := c.Locals(CtxUserEmailKey).(string)
	site, _ := c.Locals(CtxSchoolSiteKey).(*models.SchoolSite)
	return Actor{UserID: id, Email: email, Role: role, SchoolSite: site}, nil
}

// WithActor stores a into the request locals; handlers read it back with ActorFrom.
func WithActor(c *fiber.Ctx, a Actor) {
	c.Locals(CtxUserIDKey, a.UserID)
	c.Locals(CtxUserRoleKey, a.Role)
	c.Locals(CtxUserEmailKey, a.Email)
	c.Locals(CtxSchoolSiteKey, a.SchoolSite)
}
