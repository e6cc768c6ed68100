package models

import "time"

// UserRole represents the staff and guardian roles known to the system.
type UserRole string

const (
	RoleAdmin            UserRole = "admin"
	RoleHOD              UserRole = "hod"
	RoleSpecialEducator  UserRole = "special_educator"
	RoleJuniorStaff      UserRole = "junior_staff"
	RoleTeacher          UserRole = "teacher"
	RoleTherapist        UserRole = "therapist"
	RoleParent           UserRole = "parent"
	RoleClassroomTeacher UserRole = "classroom_teacher"
	RoleParaprofessional UserRole = "paraprofessional"
	RolePsychologist     UserRole = "psychologist"
)

// RoleDisplayNames maps roles to labels shown in user management views.
var RoleDisplayNames = map[UserRole]string{
	RoleAdmin:            "System Administrator",
	RoleHOD:              "Head of Department",
	RoleSpecialEducator:  "Special Educator (Lead)",
	RoleJuniorStaff:      "Junior Staff (Data Entry)",
	RoleTeacher:          "Teacher/Therapist",
	RoleTherapist:        "Therapist",
	RoleParent:           "Parent/Guardian",
	RoleClassroomTeacher: "Classroom Teacher",
	RoleParaprofessional: "Paraprofessional/Aide",
	RolePsychologist:     "School Psychologist",
}

// DisplayName returns the human-readable label for a role.
func (r UserRole) DisplayName() string {
	if name, ok := RoleDisplayNames[r]; ok {
		return name
	}
	return string(r)
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
