package models

import "time"

// Member rows are created together with their team at registration and are
// immutable afterwards. Exactly one member per team carries IsLead.
type Member struct {
	ID         int       `json:"id"`
	TeamID     int       `json:"team_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	College    string    `json:"college"`
	Department string    `json:"department"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	IsLead     bool      `json:"is_lead"`
	CreatedAt  time.Time `json:"created_at"`
}
