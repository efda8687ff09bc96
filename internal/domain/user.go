package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
