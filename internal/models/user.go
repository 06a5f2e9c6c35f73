package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleHR            UserRole = "HR"
	RoleAdmin         UserRole = "Admin"
	RolePrincipal     UserRole = "Principal"
	RoleHiringManager UserRole = "HiringManager"
	RoleInterviewer   UserRole = "Interviewer"
	RoleApplicant     UserRole = "Applicant"
)

var userRoles = []UserRole{RoleHR, RoleAdmin, RolePrincipal, RoleHiringManager, RoleInterviewer, RoleApplicant}

func (r UserRole) Valid() bool {
	return HasRole(userRoles, r)
}

// StaffRoles are the roles allowed into the admin area.
func StaffRoles() []UserRole {
	return []UserRole{RoleHR, RoleAdmin, RolePrincipal, RoleHiringManager}
}

func HasRole(roles []UserRole, role UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type SchoolSite string

const (
	SchoolHarvest SchoolSite = "Harvest"
	SchoolWakanda SchoolSite = "Wakanda"
	SchoolSankofa SchoolSite = "Sankofa"
)

func (s SchoolSite) Valid() bool {
	switch s {
	case SchoolHarvest, SchoolWakanda, SchoolSankofa:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string      `gorm:"size:100;not null" json:"name"`
	Email        string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	Role         UserRole    `gorm:"size:20;not null" json:"role"`
	SchoolSite   *SchoolSite `gorm:"size:20" json:"school_site"`
	// EmailVerifiedAt is set once the owner follows the link sent at sign-up.
	// Accounts created by HR are verified on creation.
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
