package models

import (
	"math"
	"time"

	"github.com/lib/pq"
)

type PaperStatus string

const (
	StatusSubmitted           PaperStatus = "SUBMITTED"
	StatusUnderReview         PaperStatus = "UNDER_REVIEW"
	StatusAwaitingDecision    PaperStatus = "AWAITING_DECISION"
	StatusAcceptedUnpaid      PaperStatus = "ACCEPTED_UNPAID"
	StatusRejected            PaperStatus = "REJECTED"
	StatusPaymentVerification PaperStatus = "PAYMENT_VERIFICATION"
	StatusRegistered          PaperStatus = "REGISTERED"
)

type Tier string

const (
	Tier1 Tier = "TIER_1"
	Tier2 Tier = "TIER_2"
	Tier3 Tier = "TIER_3"
)

type Paper struct {
	ID      int            `json:"id"`
	TeamID  int            `json:"team_id"`
	Title   string         `json:"title"`
	Domains pq.StringArray `json:"domains"`
	Status  PaperStatus    `json:"status"`

	AdminTier         *Tier   `json:"admin_tier,omitempty"`
	PaymentSenderName *string `json:"payment_sender_name,omitempty"`
	IsFinalSubmitted  bool    `json:"is_final_submitted"`
	ParticipationMode *string `json:"participation_mode,omitempty"`

	PaperKey             *string `json:"-"`
	PlagiarismKey        *string `json:"-"`
	CameraReadyKey       *string `json:"-"`
	PlagiarismReportKey  *string `json:"-"`
	PaymentScreenshotKey *string `json:"-"`

	PaperURL             *string `json:"paper_url,omitempty"`
	PlagiarismURL        *string `json:"plagiarism_url,omitempty"`
	CameraReadyURL       *string `json:"camera_ready_url,omitempty"`
	PlagiarismReportURL  *string `json:"plagiarism_report_url,omitempty"`
	PaymentScreenshotURL *string `json:"payment_screenshot_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Team    *Team    `json:"team,omitempty"`
	Reviews []Review `json:"reviews,omitempty"`
}

// paperStatusTransitions enumerates the only forward edges of the paper
// lifecycle. REJECTED and REGISTERED have no outgoing edges.
var paperStatusTransitions = map[PaperStatus][]PaperStatus{
	StatusSubmitted:           {StatusUnderReview},
	StatusUnderReview:         {StatusAwaitingDecision},
	StatusAwaitingDecision:    {StatusAcceptedUnpaid, StatusRejected},
	StatusAcceptedUnpaid:      {StatusPaymentVerification},
	StatusPaymentVerification: {StatusRegistered},
	StatusRejected:            {},
	StatusRegistered:          {},
}

func IsValidPaperStatusTransition(current, next PaperStatus) bool {
	for _, allowed := range paperStatusTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func (s PaperStatus) IsTerminal() bool {
	return len(paperStatusTransitions[s]) == 0
}

func (s PaperStatus) IsValid() bool {
	_, known := paperStatusTransitions[s]
	return known
}

func ValidTier(t Tier) bool {
	switch t {
	case Tier1, Tier2, Tier3:
		return true
	}
	return false
}

func (t Tier) Rank() int {
	switch t {
	case Tier1:
		return 1
	case Tier2:
		return 2
	case Tier3:
		return 3
	}
	return 0
}

func TierFromRank(rank int) Tier {
	switch rank {
	case 1:
		return Tier1
	case 2:
		return Tier2
	case 3:
		return Tier3
	}
	return ""
}

// AverageTier resolves an admin tier from the tiers of accepting reviews:
// average the ranks, round half up, clamp to [1,3]. An empty input defaults
// to TIER_1.
func AverageTier(tiers []Tier) Tier {
	if len(tiers) == 0 {
		return Tier1
	}
	sum := 0
	for _, t := range tiers {
		sum += t.Rank()
	}
	avg := float64(sum) / float64(len(tiers))
	rank := int(math.Floor(avg + 0.5))
	if rank < 1 {
		rank = 1
	}
	if rank > 3 {
		rank = 3
	}
	return TierFromRank(rank)
}
