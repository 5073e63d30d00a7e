package models

import "time"

// Role is the access role of a user account.
type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleContractor Role = "CONTRACTOR"
	RoleAdmin      Role = "ADMIN"
)

// ValidRole reports whether the given string names a known role.
func ValidRole(role string) bool {
	switch Role(role) {
	case RoleClient, RoleContractor, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account: a client, a contractor or an admin.
// IsApproved only matters for contractors, whose login is gated on it.
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Role               Role      `json:"role"`
	Phone              string    `json:"phone,omitempty"`
	IsActive           bool      `json:"isActive"`
	IsApproved         bool      `json:"isApproved"`
	IdentificationPath string    `json:"identificationPath,omitempty"`
	AvatarURL          string    `json:"avatarUrl,omitempty"`
	PasswordHash       string    `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"-"`
}

// Assignable reports whether the user may be bound to a task as a contractor.
func (u User) Assignable() bool {
	return u.Role == RoleContractor && u.IsApproved && u.IsActive
}

// SignupRequest is the JSON payload of POST /auth/signup.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
}

// LoginRequest is the JSON payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token together with the account snapshot
// the frontend caches for the session.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UpdateProfileRequest is the JSON payload of POST /auth/profile.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// AdminUpdateUserRequest is the JSON payload of PATCH /admin/users/{id}.
// Pointer fields distinguish "leave unchanged" from an explicit value.
type AdminUpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	IsActive  *bool   `json:"isActive"`
}

// VerifyContractorRequest is the JSON payload of POST /admin/verify-contractor/{id}.
type VerifyContractorRequest struct {
	Approve bool `json:"approve"`
}

// AdminStats is the aggregate returned by GET /admin/stats.
type AdminStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalTasks    int `json:"totalTasks"`
	TotalServices int `json:"totalServices"`
}
