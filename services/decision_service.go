package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/notifications"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/storage"
	"golang.org/x/sync/errgroup"
)

// blobDeleteConcurrency bounds parallel storage deletes in the bulk paths.
const blobDeleteConcurrency = 8

// DecisionService is the admin side of the paper lifecycle: accept/reject
// decisions, payment verification, and the paper listing/dashboard that the
// admin UI reads.
type DecisionService interface {
	Decide(ctx context.Context, paperID int, decision models.ReviewDecision, tier *models.Tier) (*models.Paper, error)
	BulkDecide(ctx context.Context, paperIDs []int, decision models.ReviewDecision, tier *models.Tier) (int, error)
	VerifyPayment(ctx context.Context, paperID int) (*models.Paper, error)
	BulkVerifyPayment(ctx context.Context, paperIDs []int) (int, error)
	ListPapers(ctx context.Context, statusFilter *models.PaperStatus) ([]*models.Paper, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

type decisionService struct {
	paperRepo  repositories.PaperRepository
	reviewRepo repositories.ReviewRepository
	teamRepo   repositories.TeamRepository
	uploader   storage.FileUploader
	notifier   notifications.Notifier
	hub        StatusPublisher
	logger     *slog.Logger
}

func NewDecisionService(
	paperRepo repositories.PaperRepository,
	reviewRepo repositories.ReviewRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	notifier notifications.Notifier,
	hub StatusPublisher,
	logger *slog.Logger,
) DecisionService {
	return &decisionService{
		paperRepo:  paperRepo,
		reviewRepo: reviewRepo,
		teamRepo:   teamRepo,
		uploader:   uploader,
		notifier:   notifier,
		hub:        hub,
		logger:     logger,
	}
}

func (s *decisionService) Decide(ctx context.Context, paperID int, decision models.ReviewDecision, tier *models.Tier) (*models.Paper, error) {
	if !models.ValidReviewDecision(decision) {
		return nil, ErrInvalidDecision
	}

	paper, err := s.getPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if paper.Status != models.StatusAwaitingDecision {
		return nil, ErrPaperNotAwaitingDecision
	}

	if decision == models.DecisionAccept {
		return s.accept(ctx, paper, tier)
	}
	return s.reject(ctx, paper)
}

func (s *decisionService) BulkDecide(ctx context.Context, paperIDs []int, decision models.ReviewDecision, tier *models.Tier) (int, error) {
	if len(paperIDs) == 0 {
		return 0, ErrNoPaperIDs
	}
	if !models.ValidReviewDecision(decision) {
		return 0, ErrInvalidDecision
	}

	papers := make([]*models.Paper, 0, len(paperIDs))
	for _, id := range paperIDs {
		paper, err := s.paperRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("bulk decision: skipping unknown paper",
				slog.Int("paper_id", id), slog.Any("error", err))
			continue
		}
		if paper.Status != models.StatusAwaitingDecision {
			s.logger.Warn("bulk decision: skipping paper not awaiting decision",
				slog.Int("paper_id", id), slog.String("status", string(paper.Status)))
			continue
		}
		papers = append(papers, paper)
	}

	if decision == models.DecisionReject {
		// Blobs first, in parallel. A failed delete leaks an orphan object,
		// which is preferable to a live URL pointing at a deleted one.
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(blobDeleteConcurrency)
		for _, paper := range papers {
			paper := paper
			g.Go(func() error {
				s.deleteBlobs(gCtx, paper.ID, paper.PaperKey, paper.PlagiarismKey)
				return nil
			})
		}
		_ = g.Wait()
	}

	count := 0
	for _, paper := range papers {
		var err error
		if decision == models.DecisionAccept {
			_, err = s.accept(ctx, paper, tier)
		} else {
			_, err = s.finalizeReject(ctx, paper)
		}
		if err != nil {
			s.logger.Error("bulk decision failed for paper",
				slog.Int("paper_id", paper.ID), slog.Any("error", err))
			continue
		}
		count++
	}
	return count, nil
}

func (s *decisionService) VerifyPayment(ctx context.Context, paperID int) (*models.Paper, error) {
	paper, err := s.getPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if paper.Status != models.StatusPaymentVerification {
		return nil, ErrPaperNotInVerification
	}

	s.deleteBlobs(ctx, paper.ID, paper.PaymentScreenshotKey)

	if err := s.paperRepo.SetPaymentVerified(ctx, paper.ID); err != nil {
		if errors.Is(err, repositories.ErrPaperStatusConflict) {
			return nil, ErrPaperNotInVerification
		}
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	paper.Status = models.StatusRegistered
	paper.PaymentScreenshotKey = nil
	s.hub.PublishStatus(paper.ID, models.StatusRegistered)
	s.notifyTeam(ctx, paper, notifications.KindPaymentVerified, nil)
	populatePaperFileURLs(paper, s.uploader)
	return paper, nil
}

func (s *decisionService) BulkVerifyPayment(ctx context.Context, paperIDs []int) (int, error) {
	if len(paperIDs) == 0 {
		return 0, ErrNoPaperIDs
	}
	count := 0
	for _, id := range paperIDs {
		if _, err := s.VerifyPayment(ctx, id); err != nil {
			s.logger.Warn("bulk payment verification skipped paper",
				slog.Int("paper_id", id), slog.Any("error", err))
			continue
		}
		count++
	}
	return count, nil
}

func (s *decisionService) ListPapers(ctx context.Context, statusFilter *models.PaperStatus) ([]*models.Paper, error) {
	papers, err := s.paperRepo.List(ctx, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	for _, paper := range papers {
		populatePaperFileURLs(paper, s.uploader)
	}
	return papers, nil
}

func (s *decisionService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	teams, err := s.teamRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	papers, err := s.paperRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.paperRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.reviewRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{
		TotalTeams:     teams,
		TotalPapers:    papers,
		PapersByStatus: byStatus,
		PendingReviews: pending,
	}, nil
}

func (s *decisionService) accept(ctx context.Context, paper *models.Paper, tier *models.Tier) (*models.Paper, error) {
	resolvedTier, err := s.resolveTier(ctx, paper.ID, tier)
	if err != nil {
		return nil, err
	}

	if err := s.paperRepo.SetAccepted(ctx, paper.ID, resolvedTier); err != nil {
		if errors.Is(err, repositories.ErrPaperStatusConflict) {
			return nil, ErrPaperNotAwaitingDecision
		}
		return nil, fmt.Errorf("failed to accept paper: %w", err)
	}

	paper.Status = models.StatusAcceptedUnpaid
	paper.AdminTier = &resolvedTier
	s.hub.PublishStatus(paper.ID, models.StatusAcceptedUnpaid)
	s.notifyTeam(ctx, paper, notifications.KindPaperAccepted, &resolvedTier)
	populatePaperFileURLs(paper, s.uploader)
	return paper, nil
}

func (s *decisionService) reject(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	s.deleteBlobs(ctx, paper.ID, paper.PaperKey, paper.PlagiarismKey)
	return s.finalizeReject(ctx, paper)
}

// finalizeReject writes the terminal REJECTED state; blob deletion has
// already happened (or been attempted) by the caller.
func (s *decisionService) finalizeReject(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	if err := s.paperRepo.SetRejected(ctx, paper.ID); err != nil {
		if errors.Is(err, repositories.ErrPaperStatusConflict) {
			return nil, ErrPaperNotAwaitingDecision
		}
		return nil, fmt.Errorf("failed to reject paper: %w", err)
	}

	paper.Status = models.StatusRejected
	paper.PaperKey = nil
	paper.PlagiarismKey = nil
	s.hub.PublishStatus(paper.ID, models.StatusRejected)
	s.notifyTeam(ctx, paper, notifications.KindPaperRejected, nil)
	populatePaperFileURLs(paper, s.uploader)
	return paper, nil
}

// resolveTier prefers the admin's explicit tier; without one it averages the
// tiers of accepting reviews, defaulting to TIER_1 when none carry a tier.
func (s *decisionService) resolveTier(ctx context.Context, paperID int, explicit *models.Tier) (models.Tier, error) {
	if explicit != nil {
		if !models.ValidTier(*explicit) {
			return "", ErrInvalidTier
		}
		return *explicit, nil
	}
	tiers, err := s.reviewRepo.ListAcceptedTiers(ctx, paperID)
	if err != nil {
		return "", fmt.Errorf("failed to load review tiers: %w", err)
	}
	return models.AverageTier(tiers), nil
}

func (s *decisionService) deleteBlobs(ctx context.Context, paperID int, keys ...*string) {
	for _, key := range keys {
		if key == nil || *key == "" {
			continue
		}
		if err := s.uploader.Delete(ctx, *key); err != nil {
			s.logger.Error("failed to delete stored file",
				slog.Int("paper_id", paperID),
				slog.String("key", *key),
				slog.Any("error", err))
		}
	}
}

func (s *decisionService) notifyTeam(ctx context.Context, paper *models.Paper, kind notifications.Kind, tier *models.Tier) {
	team, err := s.teamRepo.GetByID(ctx, paper.TeamID)
	if err != nil {
		s.logger.Error("failed to load team for notification",
			slog.Int("paper_id", paper.ID), slog.Any("error", err))
		return
	}
	s.notifier.Enqueue(notifications.StatusChange{
		Kind:       kind,
		To:         team.LeadEmail,
		TeamName:   team.TeamName,
		PaperTitle: paper.Title,
		Status:     paper.Status,
		Tier:       tier,
	})
}

func (s *decisionService) getPaper(ctx context.Context, paperID int) (*models.Paper, error) {
	paper, err := s.paperRepo.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaperNotFound) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to load paper: %w", err)
	}
	return paper, nil
}
