package models

import (
	"time"

	"github.com/lib/pq"
)

// Reviewer is part of a static roster seeded out-of-band
// (see cmd/seed-reviewers). Domains lists the topics the reviewer is
// willing to evaluate.
type Reviewer struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	AccessCodeHash string         `json:"-"`
	Domains        pq.StringArray `json:"domains"`
	CreatedAt      time.Time      `json:"created_at"`
}
