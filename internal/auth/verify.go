package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	verificationTTL     = 48 * time.Hour
	verificationPurpose = "email-verification"
)

type verificationClaims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// GenerateVerificationToken signs a single-purpose token proving control of
// user.Email. It is not accepted as a session token.
func GenerateVerificationToken(secret string, user *models.User) (string, error) {
	now := time.Now()
	claims := &verificationClaims{
		Purpose: verificationPurpose,
		Email:   user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(verificationTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseVerificationToken(secret, tokenStr string) (uuid.UUID, string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &verificationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	claims, ok := token.Claims.(*verificationClaims)
	if !ok || !token.Valid || claims.Purpose != verificationPurpose {
		return uuid.Nil, "", fmt.Errorf("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid token subject")
	}
	return id, claims.Email, nil
}

// SendVerification queues the confirmation link for user.
func SendVerification(cfg *config.Config, notifier notify.Notifier, user *models.User) error {
	token, err := GenerateVerificationToken(cfg.JWTSecret, user)
	if err != nil {
		return err
	}
	notifier.Enqueue(notify.Message{
		Template: notify.KeyVerifyEmail,
		To:       []string{user.Email},
		Data:     &notify.VerifyEmailParams{Name: user.Name, Token: token},
	})
	return nil
}

// POST /api/auth/verify-email
func VerifyEmailHandler(cfg *config.Config, users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VerifyEmailRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		userID, email, err := parseVerificationToken(cfg.JWTSecret, strings.TrimSpace(body.Token))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired verification link")
		}

		user, err := users.GetUser(c.UserContext(), userID)
		if err != nil || user.Email != email {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired verification link")
		}
		if !user.EmailVerified() {
			now := time.Now()
			user.EmailVerifiedAt = &now
			if err := users.UpdateUser(c.UserContext(), user); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not verify email")
			}
		}
		return c.JSON(fiber.Map{"success": true, "user": userResponse(user)})
	}
}

// POST /api/auth/resend-verification
func ResendVerificationHandler(cfg *config.Config, users store.UserStore, notifier notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}
		user, err := users.GetUser(c.UserContext(), actor.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		if user.EmailVerified() {
			return c.JSON(fiber.Map{"success": true, "message": "email already verified"})
		}
		if err := SendVerification(cfg, notifier, user); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create verification link")
		}
		return c.JSON(fiber.Map{"success": true, "message": "verification email sent"})
	}
}

// VerifiedEmail returns the normalised email of the actor's account, but only
// once the account has proven it controls that address. Applicant records are
// matched on email, so an unverified address must not unlock them.
func VerifiedEmail(ctx context.Context, users store.UserStore, actor Actor) (string, bool) {
	if actor.UserID == uuid.Nil {
		return "", false
	}
	user, err := users.GetUser(ctx, actor.UserID)
	if err != nil || !user.EmailVerified() {
		return "", false
	}
	return models.NormalizeEmail(user.Email), true
}
