package auth

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the part of an Admin that may leave the server.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (a Admin) Profile() Profile {
	return Profile{ID: a.ID, Email: a.Email, Name: a.Name}
}

// Identity is what a verified token proves about its holder.
type Identity struct {
	AdminID    string `json:"id"`
	AdminEmail string `json:"email"`
}

type LoginResult struct {
	Token string
	Admin Profile
}
