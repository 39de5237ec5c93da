package services

import "errors"

// Business-rule errors shared across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed      = errors.New("validation failed")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrInvalidEmail          = errors.New("a valid email address is required")
	ErrAccessCodeTooShort    = errors.New("access code is too short")
	ErrMembersRequired       = errors.New("at least one team member is required")
	ErrLeadMemberRequired    = errors.New("exactly one member must be marked as team lead")
	ErrPaperTitleRequired    = errors.New("paper title is required")
	ErrDomainsRequired       = errors.New("at least one paper domain is required")
	ErrFileRequired          = errors.New("file upload is required")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrFileTooLarge          = errors.New("uploaded file is too large")
	ErrSenderNameRequired    = errors.New("payment sender name is required")
	ErrParticipationRequired = errors.New("participation mode is required")

	// Review submission
	ErrInvalidDecision        = errors.New("decision must be ACCEPT or REJECT")
	ErrTierRequired           = errors.New("tier is required when accepting a paper")
	ErrInvalidTier            = errors.New("invalid tier")
	ErrReviewNotOwned         = errors.New("review belongs to another reviewer")
	ErrReviewAlreadyCompleted = errors.New("review has already been submitted")

	// Paper lifecycle
	ErrPaperNotAwaitingDecision  = errors.New("paper is not awaiting an admin decision")
	ErrPaperNotAcceptedUnpaid    = errors.New("paper is not awaiting payment")
	ErrPaperNotInVerification    = errors.New("paper has no payment awaiting verification")
	ErrFinalSubmissionClosed     = errors.New("final submission is closed for rejected papers")
	ErrNoPaperIDs                = errors.New("at least one paper id is required")

	// Conflicts
	ErrTeamEmailConflict = errors.New("lead email address is already registered")
	ErrPaperTeamConflict = errors.New("team has already submitted a paper")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or access code")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-found variants
	ErrTeamNotFound     = errors.New("team not found")
	ErrPaperNotFound    = errors.New("paper not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrReviewerNotFound = errors.New("reviewer not found")
)
