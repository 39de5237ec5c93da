package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
)

const maxReviewersPerPaper = 3

// AssignmentService picks reviewers for a freshly submitted paper. Eligibility
// is domain overlap: a reviewer qualifies when their declared domain set
// intersects the paper's.
type AssignmentService interface {
	Assign(ctx context.Context, paperID int, domains []string) error
}

type assignmentService struct {
	db           *sql.DB
	reviewerRepo repositories.ReviewerRepository
	reviewRepo   repositories.ReviewRepository
	paperRepo    repositories.PaperRepository
	hub          StatusPublisher
	logger       *slog.Logger
}

func NewAssignmentService(
	db *sql.DB,
	reviewerRepo repositories.ReviewerRepository,
	reviewRepo repositories.ReviewRepository,
	paperRepo repositories.PaperRepository,
	hub StatusPublisher,
	logger *slog.Logger,
) AssignmentService {
	return &assignmentService{
		db:           db,
		reviewerRepo: reviewerRepo,
		reviewRepo:   reviewRepo,
		paperRepo:    paperRepo,
		hub:          hub,
		logger:       logger,
	}
}

func (s *assignmentService) Assign(ctx context.Context, paperID int, domains []string) error {
	if len(domains) == 0 {
		return ErrDomainsRequired
	}

	eligible, err := s.reviewerRepo.ListByAnyDomain(ctx, domains)
	if err != nil {
		return fmt.Errorf("failed to list eligible reviewers: %w", err)
	}
	if len(eligible) == 0 {
		// Paper stays SUBMITTED; an operator has to resolve this manually.
		s.logger.Warn("no eligible reviewers for paper",
			slog.Int("paper_id", paperID),
			slog.Any("domains", domains))
		return nil
	}

	// Uniform shuffle, then take the head of the pool.
	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	selected := eligible
	if len(selected) > maxReviewersPerPaper {
		selected = selected[:maxReviewersPerPaper]
	}

	reviews := make([]*models.Review, 0, len(selected))
	for _, reviewer := range selected {
		reviews = append(reviews, &models.Review{
			PaperID:    paperID,
			ReviewerID: reviewer.ID,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin assignment transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.reviewRepo.CreateBatch(ctx, tx, reviews); err != nil {
		return fmt.Errorf("failed to create review assignments: %w", err)
	}
	if err := s.paperRepo.TransitionStatus(ctx, tx, paperID, models.StatusSubmitted, models.StatusUnderReview); err != nil {
		return fmt.Errorf("failed to move paper under review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignment transaction: %w", err)
	}

	s.hub.PublishStatus(paperID, models.StatusUnderReview)
	s.logger.Info("reviewers assigned",
		slog.Int("paper_id", paperID),
		slog.Int("assigned", len(selected)),
		slog.Int("eligible", len(eligible)))
	return nil
}
