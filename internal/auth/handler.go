package auth

import (
	"errors"
	"log"
	"strings"
	"time"

	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HashPassword is shared with admin user management.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
	}
	return string(hash), nil
}

func parseRegister(c *fiber.Ctx) (RegisterRequest, error) {
	var body RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	body.Email = models.NormalizeEmail(body.Email)
	body.Name = strings.TrimSpace(body.Name)
	if body.Email == "" || body.Password == "" || body.Name == "" {
		return body, fiber.NewError(fiber.StatusBadRequest, "name, email and password are required")
	}
	return body, nil
}

func createUser(c *fiber.Ctx, users store.UserStore, body RegisterRequest, role models.UserRole, verified bool) (*models.User, error) {
	hash, err := HashPassword(body.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if verified {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}
	if err := users.CreateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fiber.NewError(fiber.StatusConflict, "email is already registered")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not create user")
	}
	return user, nil
}

// RegisterHandler signs up a job seeker. Staff accounts are created by HR.
// The account cannot see any application until its email is confirmed.
func RegisterHandler(cfg *config.Config, users store.UserStore, notifier notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseRegister(c)
		if err != nil {
			return err
		}
		user, err := createUser(c, users, body, models.RoleApplicant, false)
		if err != nil {
			return err
		}
		if err := SendVerification(cfg, notifier, user); err != nil {
			log.Printf("[WARN] verification email for %s not queued: %v", user.ID, err)
		}
		token, err := GenerateToken(cfg.JWTSecret, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  userResponse(user),
		})
	}
}

// BootstrapAdminHandler creates the first Admin account and refuses once one exists.
func BootstrapAdminHandler(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseRegister(c)
		if err != nil {
			return err
		}

		count, err := users.CountUsersByRole(c.UserContext(), models.RoleAdmin)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check existing admins")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		user, err := createUser(c, users, body, models.RoleAdmin, true)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config, users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		user, err := users.GetUserByEmail(c.UserContext(), models.NormalizeEmail(body.Email))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  userResponse(user),
		})
	}
}

func MeHandler(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}

		user, err := users.GetUser(c.UserContext(), actor.UserID)
		if err != nil {
			// Token is still valid; answer from the claims.
			return c.JSON(fiber.Map{
				"user_id":     actor.UserID,
				"email":       actor.Email,
				"role":        actor.Role,
				"school_site": actor.SchoolSite,
			})
		}
		return c.JSON(userResponse(user))
	}
}

func userResponse(u *models.User) fiber.Map {
	return fiber.Map{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"role":           u.Role,
		"school_site":    u.SchoolSite,
		"email_verified": u.EmailVerified(),
	}
}
