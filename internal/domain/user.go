package domain

import "time"

// Role names stored on users and embedded in JWT claims.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	Active       bool       `json:"active" dynamodbav:"active"`
	Verified     bool       `json:"verified" dynamodbav:"verified"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// AccountID and ContactEmail satisfy verification.Account so a user can
// receive and redeem one-time codes.
func (u *User) AccountID() string    { return u.UserID }
func (u *User) ContactEmail() string { return u.Email }
func (u *User) ContactPhone() *string {
	return u.Phone
}

type CreateUserRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name" validate:"required"`
	Phone           *string `json:"phone"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// AdminUpdateUserRequest extends the profile update with admin-only fields.
type AdminUpdateUserRequest struct {
	UpdateUserRequest
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
	Active   *bool   `json:"active"`
	Verified *bool   `json:"verified"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Email    string // substring match
	Active   *bool
	Verified *bool
}
