package models

import "time"

// User captures application-facing fields for a registered identity.
type User struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	MotherLastName string    `json:"motherLastName"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	SecretQuestion string    `json:"secretQuestion"`
	SecretAnswer   string    `json:"-"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
