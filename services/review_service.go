package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/storage"
)

// consensusQuorum is the number of matching decisions that moves a paper out
// of active review.
const consensusQuorum = 2

type SubmitReviewInput struct {
	Decision models.ReviewDecision `json:"decision"`
	Tier     *models.Tier          `json:"tier,omitempty"`
	Feedback string                `json:"feedback"`
}

type ReviewService interface {
	ListAssigned(ctx context.Context, reviewerID int) ([]*models.Review, error)
	Get(ctx context.Context, reviewerID, reviewID int) (*models.Review, error)
	Submit(ctx context.Context, reviewerID, reviewID int, input SubmitReviewInput) error
}

type reviewService struct {
	reviewRepo repositories.ReviewRepository
	paperRepo  repositories.PaperRepository
	uploader   storage.FileUploader
	hub        StatusPublisher
	logger     *slog.Logger
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	paperRepo repositories.PaperRepository,
	uploader storage.FileUploader,
	hub StatusPublisher,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		paperRepo:  paperRepo,
		uploader:   uploader,
		hub:        hub,
		logger:     logger,
	}
}

func (s *reviewService) ListAssigned(ctx context.Context, reviewerID int) ([]*models.Review, error) {
	reviews, err := s.reviewRepo.ListByReviewerID(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned reviews: %w", err)
	}
	for _, review := range reviews {
		populatePaperFileURLs(review.Paper, s.uploader)
	}
	return reviews, nil
}

// Get returns a single assignment and stamps viewed_at on first access.
func (s *reviewService) Get(ctx context.Context, reviewerID, reviewID int) (*models.Review, error) {
	review, err := s.getOwned(ctx, reviewerID, reviewID)
	if err != nil {
		return nil, err
	}

	if review.ViewedAt == nil {
		if err := s.reviewRepo.MarkViewed(ctx, reviewID); err != nil {
			// Not worth failing the read over.
			s.logger.Warn("failed to mark review viewed",
				slog.Int("review_id", reviewID), slog.Any("error", err))
		}
	}

	paper, err := s.paperRepo.GetByID(ctx, review.PaperID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper for review: %w", err)
	}
	populatePaperFileURLs(paper, s.uploader)
	review.Paper = paper
	return review, nil
}

func (s *reviewService) Submit(ctx context.Context, reviewerID, reviewID int, input SubmitReviewInput) error {
	review, err := s.getOwned(ctx, reviewerID, reviewID)
	if err != nil {
		return err
	}
	if review.IsCompleted {
		return ErrReviewAlreadyCompleted
	}

	if !models.ValidReviewDecision(input.Decision) {
		return ErrInvalidDecision
	}
	var tier *models.Tier
	switch input.Decision {
	case models.DecisionAccept:
		if input.Tier == nil {
			return ErrTierRequired
		}
		if !models.ValidTier(*input.Tier) {
			return ErrInvalidTier
		}
		tier = input.Tier
	case models.DecisionReject:
		// A tier sent alongside a reject is discarded.
		tier = nil
	}

	if err := s.reviewRepo.SubmitDecision(ctx, reviewID, input.Decision, tier, input.Feedback); err != nil {
		if errors.Is(err, repositories.ErrReviewAlreadyCompleted) {
			return ErrReviewAlreadyCompleted
		}
		return fmt.Errorf("failed to submit review: %w", err)
	}

	s.evaluateConsensus(ctx, review.PaperID)
	return nil
}

// evaluateConsensus advances the paper once a quorum of matching decisions
// exists. The transition is conditional on the paper still being
// UNDER_REVIEW, so concurrent submissions that both see the quorum race
// harmlessly: exactly one update wins.
func (s *reviewService) evaluateConsensus(ctx context.Context, paperID int) {
	accepts, rejects, err := s.reviewRepo.CountDecisions(ctx, paperID)
	if err != nil {
		s.logger.Error("failed to count review decisions",
			slog.Int("paper_id", paperID), slog.Any("error", err))
		return
	}
	if accepts < consensusQuorum && rejects < consensusQuorum {
		return
	}

	err = s.paperRepo.TransitionStatus(ctx, nil, paperID, models.StatusUnderReview, models.StatusAwaitingDecision)
	if err != nil {
		if errors.Is(err, repositories.ErrPaperStatusConflict) {
			// Already advanced by an earlier submission.
			return
		}
		s.logger.Error("failed to advance paper to awaiting decision",
			slog.Int("paper_id", paperID), slog.Any("error", err))
		return
	}

	s.hub.PublishStatus(paperID, models.StatusAwaitingDecision)
	s.logger.Info("review consensus reached",
		slog.Int("paper_id", paperID),
		slog.Int("accepts", accepts),
		slog.Int("rejects", rejects))
}

func (s *reviewService) getOwned(ctx context.Context, reviewerID, reviewID int) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review.ReviewerID != reviewerID {
		return nil, ErrReviewNotOwned
	}
	return review, nil
}
