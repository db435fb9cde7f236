package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RolePlayer UserRole = "PLAYER"
)

type User struct {
	LicenseNumber string    `json:"license_number"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Role          UserRole  `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}
