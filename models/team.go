package models

import "time"

type Team struct {
	ID                int       `json:"id"`
	TeamName          string    `json:"team_name"`
	LeadEmail         string    `json:"lead_email"`
	AccessCodeHash    string    `json:"-"`
	MentorName        string    `json:"mentor_name"`
	MentorDept        string    `json:"mentor_dept"`
	Country           string    `json:"country"`
	ParticipationMode string    `json:"participation_mode"`
	CreatedAt         time.Time `json:"created_at"`

	Members []Member `json:"members,omitempty"`
	Paper   *Paper   `json:"paper,omitempty"`
}
