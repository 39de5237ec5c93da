package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/notifications"
)

func strPtr(s string) *string { return &s }

func awaitingPaper(id, teamID int) *models.Paper {
	return &models.Paper{
		ID:            id,
		TeamID:        teamID,
		Title:         "Adaptive Scheduling",
		Status:        models.StatusAwaitingDecision,
		PaperKey:      strPtr("papers/a.pdf"),
		PlagiarismKey: strPtr("plagiarism/a.pdf"),
	}
}

func newDecisionFixture() (*fakePaperRepo, *fakeReviewRepo, *fakeTeamRepo, *fakeUploader, *fakeNotifier, *fakePublisher) {
	paperRepo := &fakePaperRepo{byID: map[int]*models.Paper{
		1: awaitingPaper(1, 9),
	}}
	teamRepo := &fakeTeamRepo{byID: map[int]*models.Team{
		9: {ID: 9, TeamName: "Team Apex", LeadEmail: "lead@apex.test"},
	}}
	return paperRepo, &fakeReviewRepo{}, teamRepo, &fakeUploader{}, &fakeNotifier{}, &fakePublisher{}
}

func TestDecideAcceptWithExplicitTier(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	tier := models.Tier3
	paper, err := svc.Decide(context.Background(), 1, models.DecisionAccept, &tier)
	require.NoError(t, err)

	assert.Equal(t, models.StatusAcceptedUnpaid, paper.Status)
	assert.Equal(t, models.Tier3, paperRepo.accepted[1])
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, notifications.KindPaperAccepted, notifier.changes[0].Kind)
	assert.Equal(t, "lead@apex.test", notifier.changes[0].To)
	assert.Equal(t, []models.PaperStatus{models.StatusAcceptedUnpaid}, hub.published())
}

func TestDecideAcceptAveragesReviewTiers(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	reviewRepo.tiers = []models.Tier{models.Tier1, models.Tier3}
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	paper, err := svc.Decide(context.Background(), 1, models.DecisionAccept, nil)
	require.NoError(t, err)

	assert.Equal(t, models.Tier2, paperRepo.accepted[1])
	require.NotNil(t, paper.AdminTier)
	assert.Equal(t, models.Tier2, *paper.AdminTier)
}

func TestDecideAcceptRejectsInvalidTier(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	bogus := models.Tier("TIER_0")
	_, err := svc.Decide(context.Background(), 1, models.DecisionAccept, &bogus)
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestDecideRejectDeletesFiles(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	paper, err := svc.Decide(context.Background(), 1, models.DecisionReject, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, paper.Status)
	assert.Nil(t, paper.PaperKey)
	assert.Nil(t, paper.PaperURL)
	assert.ElementsMatch(t, []string{"papers/a.pdf", "plagiarism/a.pdf"}, uploader.deletedKeys())
	assert.Equal(t, []int{1}, paperRepo.rejected)
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, notifications.KindPaperRejected, notifier.changes[0].Kind)
}

func TestDecideRequiresAwaitingDecision(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	paperRepo.byID[1].Status = models.StatusUnderReview
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	_, err := svc.Decide(context.Background(), 1, models.DecisionAccept, nil)
	assert.ErrorIs(t, err, ErrPaperNotAwaitingDecision)
}

func TestDecideUnknownPaper(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	_, err := svc.Decide(context.Background(), 404, models.DecisionAccept, nil)
	assert.ErrorIs(t, err, ErrPaperNotFound)
}

func TestBulkDecideSkipsIneligiblePapers(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	paperRepo.byID[2] = awaitingPaper(2, 9)
	paperRepo.byID[3] = &models.Paper{ID: 3, TeamID: 9, Status: models.StatusRegistered}
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	count, err := svc.BulkDecide(context.Background(), []int{1, 2, 3, 404}, models.DecisionReject, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.ElementsMatch(t, []int{1, 2}, paperRepo.rejected)
	assert.Len(t, uploader.deletedKeys(), 4)
}

func TestBulkDecideRequiresIDs(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	_, err := svc.BulkDecide(context.Background(), nil, models.DecisionAccept, nil)
	assert.ErrorIs(t, err, ErrNoPaperIDs)
}

func TestVerifyPayment(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	paperRepo.byID[1].Status = models.StatusPaymentVerification
	paperRepo.byID[1].PaymentScreenshotKey = strPtr("payments/p.png")
	paperRepo.byID[1].PaymentSenderName = strPtr("A. Lead")
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	paper, err := svc.VerifyPayment(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRegistered, paper.Status)
	assert.Nil(t, paper.PaymentScreenshotKey)
	assert.Equal(t, "A. Lead", *paper.PaymentSenderName)
	assert.Equal(t, []string{"payments/p.png"}, uploader.deletedKeys())
	assert.Equal(t, []int{1}, paperRepo.verified)
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, notifications.KindPaymentVerified, notifier.changes[0].Kind)
}

func TestVerifyPaymentRequiresVerificationStatus(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	_, err := svc.VerifyPayment(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPaperNotInVerification)
}

func TestBulkVerifyPaymentCountsSuccesses(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	paperRepo.byID[1].Status = models.StatusPaymentVerification
	paperRepo.byID[2] = awaitingPaper(2, 9)
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	count, err := svc.BulkVerifyPayment(context.Background(), []int{1, 2, 404})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDashboard(t *testing.T) {
	paperRepo, reviewRepo, teamRepo, uploader, notifier, hub := newDecisionFixture()
	teamRepo.total = 12
	paperRepo.total = 12
	paperRepo.byStatus = map[models.PaperStatus]int{
		models.StatusUnderReview: 7,
		models.StatusRegistered:  5,
	}
	reviewRepo.pending = 14
	svc := NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, notifier, hub, testLogger())

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalTeams)
	assert.Equal(t, 12, stats.TotalPapers)
	assert.Equal(t, 14, stats.PendingReviews)
	assert.Equal(t, 7, stats.PapersByStatus[models.StatusUnderReview])
}
