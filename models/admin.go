package models

import "time"

type Admin struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	AccessCodeHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserRole string

const (
	RoleTeam     UserRole = "team"
	RoleReviewer UserRole = "reviewer"
	RoleAdmin    UserRole = "admin"
)
