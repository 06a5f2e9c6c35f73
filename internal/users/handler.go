// Package users is HR's management of staff accounts.
package users

import (
	"errors"
	"strings"
	"time"

	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserResponse struct {
	ID         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Role       models.UserRole    `json:"role"`
	SchoolSite *models.SchoolSite `json:"school_site"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
}

type CreateUserRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	SchoolSite *string `json:"school_site"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	SchoolSite *string `json:"school_site"` // "" clears the site
}

// Accounts created here carry one of these roles. Other roles are granted by
// editing an existing account.
var creatableRoles = []models.UserRole{models.RoleHR, models.RoleAdmin}

func toResponse(u models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		SchoolSite: u.SchoolSite,
		CreatedAt:  u.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:  u.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func parseSite(raw *string) (*models.SchoolSite, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	site := models.SchoolSite(strings.TrimSpace(*raw))
	if !site.Valid() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unknown school site")
	}
	return &site, nil
}

// POST /api/admin/users
func CreateUserHandler(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = models.NormalizeEmail(body.Email)
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, email and password are required")
		}

		role := models.UserRole(strings.TrimSpace(body.Role))
		if !models.HasRole(creatableRoles, role) {
			return fiber.NewError(fiber.StatusBadRequest, "role must be HR or Admin")
		}
		site, err := parseSite(body.SchoolSite)
		if err != nil {
			return err
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}

		now := time.Now()
		user := models.User{
			Name:            body.Name,
			Email:           body.Email,
			PasswordHash:    hash,
			Role:            role,
			SchoolSite:      site,
			EmailVerifiedAt: &now,
		}
		if err := users.CreateUser(c.UserContext(), &user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fiber.NewError(fiber.StatusConflict, "email is already registered")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(user))
	}
}

// GET /api/admin/users?role=
func ListUsersHandler(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := users.ListUsers(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}

		role := models.UserRole(c.Query("role"))
		res := make([]UserResponse, 0, len(list))
		for _, u := range list {
			if role != "" && u.Role != role {
				continue
			}
			res = append(res, toResponse(u))
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		user, err := users.GetUser(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "user not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load user")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			user.Name = name
		}
		if body.Role != nil {
			role := models.UserRole(strings.TrimSpace(*body.Role))
			if !role.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "unknown role")
			}
			user.Role = role
		}
		if body.SchoolSite != nil {
			site, err := parseSite(body.SchoolSite)
			if err != nil {
				return err
			}
			user.SchoolSite = site
		}

		if err := users.UpdateUser(c.UserContext(), user); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update user")
		}
		return c.JSON(toResponse(*user))
	}
}
