package domain

type UserRole string

const (
	UserRoleGuide   UserRole = "guide"
	UserRoleTourist UserRole = "tourist"
)

// User is owned by the authentication system; this service only reads it.
type User struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}
