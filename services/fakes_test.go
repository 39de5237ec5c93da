package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/notifications"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubDriver backs a *sql.DB whose transactions are no-ops. The services own
// transaction boundaries but pass the executor down to repositories, so fakes
// never touch it.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubDriver.Do(func() {
		sql.Register("servicestub", stubDriver{})
	})
	db, err := sql.Open("servicestub", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.PaperStatus
}

func (p *fakePublisher) PublishStatus(paperID int, status models.PaperStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, status)
}

func (p *fakePublisher) published() []models.PaperStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.PaperStatus(nil), p.events...)
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []notifications.StatusChange
}

func (n *fakeNotifier) Enqueue(sc notifications.StatusChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, sc)
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failKeys map[string]error
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://files.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err, ok := u.failKeys[key]; ok {
		return err
	}
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.test/" + key
}

func (u *fakeUploader) deletedKeys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.deleted...)
}

type fakeReviewerRepo struct {
	reviewers []*models.Reviewer
	listErr   error
}

func (r *fakeReviewerRepo) Create(context.Context, *models.Reviewer) error { return nil }
func (r *fakeReviewerRepo) GetByID(context.Context, int) (*models.Reviewer, error) {
	return nil, repositories.ErrReviewerNotFound
}
func (r *fakeReviewerRepo) GetByEmail(context.Context, string) (*models.Reviewer, error) {
	return nil, repositories.ErrReviewerNotFound
}
func (r *fakeReviewerRepo) ListByAnyDomain(context.Context, []string) ([]*models.Reviewer, error) {
	return r.reviewers, r.listErr
}

type fakeReviewRepo struct {
	mu sync.Mutex

	created      []*models.Review
	createErrs   error
	byID         map[int]*models.Review
	submitErr    error
	submitted    []int
	viewed       []int
	accepts      int
	rejects      int
	countErr     error
	tiers        []models.Tier
	pending      int
	byReviewerID []*models.Review
	byPaperID    []*models.Review
}

func (r *fakeReviewRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, reviews []*models.Review) error {
	if r.createErrs != nil {
		return r.createErrs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, reviews...)
	return nil
}

func (r *fakeReviewRepo) GetByID(_ context.Context, id int) (*models.Review, error) {
	review, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrReviewNotFound
	}
	copied := *review
	return &copied, nil
}

func (r *fakeReviewRepo) ListByReviewerID(context.Context, int) ([]*models.Review, error) {
	return r.byReviewerID, nil
}

func (r *fakeReviewRepo) ListByPaperID(context.Context, int) ([]*models.Review, error) {
	return r.byPaperID, nil
}

func (r *fakeReviewRepo) SubmitDecision(_ context.Context, id int, decision models.ReviewDecision, tier *models.Tier, feedback string) error {
	if r.submitErr != nil {
		return r.submitErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted = append(r.submitted, id)
	if review, ok := r.byID[id]; ok {
		review.Decision = &decision
		review.Tier = tier
		review.Feedback = &feedback
		review.IsCompleted = true
	}
	return nil
}

func (r *fakeReviewRepo) MarkViewed(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewed = append(r.viewed, id)
	return nil
}

func (r *fakeReviewRepo) CountDecisions(context.Context, int) (int, int, error) {
	return r.accepts, r.rejects, r.countErr
}

func (r *fakeReviewRepo) ListAcceptedTiers(context.Context, int) ([]models.Tier, error) {
	return r.tiers, nil
}

func (r *fakeReviewRepo) CountPending(context.Context) (int, error) {
	return r.pending, nil
}

type fakePaperRepo struct {
	mu sync.Mutex

	byID          map[int]*models.Paper
	byTeamID      map[int]*models.Paper
	createErr     error
	created       []*models.Paper
	transitions   []string
	transitionErr error
	accepted      map[int]models.Tier
	rejected      []int
	verified      []int
	proofs        map[int]string
	finals        []int
	papers        []*models.Paper
	total         int
	byStatus      map[models.PaperStatus]int
}

func (r *fakePaperRepo) Create(_ context.Context, _ repositories.SQLExecutor, paper *models.Paper) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	paper.ID = len(r.created) + 1
	paper.Status = models.StatusSubmitted
	r.created = append(r.created, paper)
	return nil
}

func (r *fakePaperRepo) GetByID(_ context.Context, id int) (*models.Paper, error) {
	paper, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrPaperNotFound
	}
	copied := *paper
	return &copied, nil
}

func (r *fakePaperRepo) GetByTeamID(_ context.Context, teamID int) (*models.Paper, error) {
	paper, ok := r.byTeamID[teamID]
	if !ok {
		return nil, repositories.ErrPaperNotFound
	}
	copied := *paper
	return &copied, nil
}

func (r *fakePaperRepo) List(context.Context, *models.PaperStatus) ([]*models.Paper, error) {
	return r.papers, nil
}

func (r *fakePaperRepo) TransitionStatus(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.PaperStatus) error {
	if r.transitionErr != nil {
		return r.transitionErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if paper, ok := r.byID[id]; ok {
		if paper.Status != from {
			return repositories.ErrPaperStatusConflict
		}
		paper.Status = to
	}
	r.transitions = append(r.transitions, string(from)+">"+string(to))
	return nil
}

func (r *fakePaperRepo) SetAccepted(_ context.Context, id int, tier models.Tier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accepted == nil {
		r.accepted = make(map[int]models.Tier)
	}
	r.accepted[id] = tier
	return nil
}

func (r *fakePaperRepo) SetRejected(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, id)
	return nil
}

func (r *fakePaperRepo) SetPaymentProof(_ context.Context, id int, screenshotKey, senderName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proofs == nil {
		r.proofs = make(map[int]string)
	}
	r.proofs[id] = screenshotKey
	return nil
}

func (r *fakePaperRepo) SetPaymentVerified(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified = append(r.verified, id)
	return nil
}

func (r *fakePaperRepo) SetFinalSubmission(_ context.Context, _ repositories.SQLExecutor, id int, cameraReadyKey, plagiarismReportKey, participationMode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = append(r.finals, id)
	return nil
}

func (r *fakePaperRepo) Count(context.Context) (int, error) {
	return r.total, nil
}

func (r *fakePaperRepo) CountByStatus(context.Context) (map[models.PaperStatus]int, error) {
	return r.byStatus, nil
}

type fakeTeamRepo struct {
	byID      map[int]*models.Team
	byEmail   map[string]*models.Team
	createErr error
	created   []*models.Team
	total     int
}

func (r *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	if r.createErr != nil {
		return r.createErr
	}
	team.ID = len(r.created) + 1
	// Persist a snapshot; the service mutates the team after the insert.
	copied := *team
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	team, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) GetByLeadEmail(_ context.Context, email string) (*models.Team, error) {
	team, ok := r.byEmail[email]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) Count(context.Context) (int, error) {
	return r.total, nil
}

type fakeAdminRepo struct {
	byEmail map[string]*models.Admin
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	admin, ok := r.byEmail[email]
	if !ok {
		return nil, repositories.ErrAdminNotFound
	}
	copied := *admin
	return &copied, nil
}

type fakeMemberRepo struct {
	created  []*models.Member
	byTeamID map[int][]models.Member
}

func (r *fakeMemberRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, members []*models.Member) error {
	r.created = append(r.created, members...)
	return nil
}

func (r *fakeMemberRepo) ListByTeamID(_ context.Context, teamID int) ([]models.Member, error) {
	return r.byTeamID[teamID], nil
}
