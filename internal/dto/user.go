package dto

import "github.com/seims-dev/seims-api/internal/models"

// CreateUserRequest payload for admin account creation.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required"`
}

// UpdateUserRequest payload for account updates; nil fields stay unchanged.
type UpdateUserRequest struct {
	FullName *string          `json:"full_name"`
	Role     *models.UserRole `json:"role"`
	Active   *bool            `json:"active"`
}

// UserItem is one row in user management listings.
type UserItem struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	FullName    string          `json:"full_name"`
	Role        models.UserRole `json:"role"`
	RoleDisplay string          `json:"role_display"`
	Active      bool            `json:"active"`
}
