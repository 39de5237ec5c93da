package models

import "time"

type ReviewDecision string

const (
	DecisionAccept ReviewDecision = "ACCEPT"
	DecisionReject ReviewDecision = "REJECT"
)

type Review struct {
	ID          int             `json:"id"`
	PaperID     int             `json:"paper_id"`
	ReviewerID  int             `json:"reviewer_id"`
	Decision    *ReviewDecision `json:"decision,omitempty"`
	Tier        *Tier           `json:"tier,omitempty"`
	Feedback    *string         `json:"feedback,omitempty"`
	IsCompleted bool            `json:"is_completed"`
	ViewedAt    *time.Time      `json:"viewed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Paper    *Paper    `json:"paper,omitempty"`
	Reviewer *Reviewer `json:"reviewer,omitempty"`
}

func ValidReviewDecision(d ReviewDecision) bool {
	return d == DecisionAccept || d == DecisionReject
}
