package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/confdesk/conference-system/models"
	"github.com/lib/pq"
)

var (
	ErrPaperNotFound       = errors.New("paper not found")
	ErrPaperTeamConflict   = errors.New("team already has a paper")
	ErrPaperStatusConflict = errors.New("paper is not in the required status")
)

type PaperRepository interface {
	Create(ctx context.Context, exec SQLExecutor, paper *models.Paper) error
	GetByID(ctx context.Context, id int) (*models.Paper, error)
	GetByTeamID(ctx context.Context, teamID int) (*models.Paper, error)
	List(ctx context.Context, statusFilter *models.PaperStatus) ([]*models.Paper, error)

	// TransitionStatus moves a paper from one status to another. The update is
	// conditional on the current status, so concurrent callers racing on the
	// same transition cannot move a paper twice: the loser gets
	// ErrPaperStatusConflict.
	TransitionStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.PaperStatus) error

	SetAccepted(ctx context.Context, id int, tier models.Tier) error
	SetRejected(ctx context.Context, id int) error
	SetPaymentProof(ctx context.Context, id int, screenshotKey, senderName string) error
	SetPaymentVerified(ctx context.Context, id int) error
	SetFinalSubmission(ctx context.Context, exec SQLExecutor, id int, cameraReadyKey, plagiarismReportKey, participationMode string) error

	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[models.PaperStatus]int, error)
}

type postgresPaperRepository struct {
	db *sql.DB
}

func NewPostgresPaperRepository(db *sql.DB) PaperRepository {
	return &postgresPaperRepository{db: db}
}

func (r *postgresPaperRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const paperColumns = `
	id, team_id, title, domains, status, admin_tier, payment_sender_name,
	is_final_submitted, participation_mode, paper_key, plagiarism_key,
	camera_ready_key, plagiarism_report_key, payment_screenshot_key,
	created_at, updated_at`

func (r *postgresPaperRepository) Create(ctx context.Context, exec SQLExecutor, paper *models.Paper) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO papers (team_id, title, domains, status, paper_key, plagiarism_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		paper.TeamID,
		paper.Title,
		paper.Domains,
		paper.Status,
		paper.PaperKey,
		paper.PlagiarismKey,
	).Scan(&paper.ID, &paper.CreatedAt, &paper.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "papers_team_id_key" {
				return ErrPaperTeamConflict
			}
		}
		return fmt.Errorf("failed to create paper: %w", err)
	}
	return nil
}

func (r *postgresPaperRepository) GetByID(ctx context.Context, id int) (*models.Paper, error) {
	query := `SELECT` + paperColumns + ` FROM papers WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresPaperRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Paper, error) {
	query := `SELECT` + paperColumns + ` FROM papers WHERE team_id = $1`
	return r.findOne(ctx, query, teamID)
}

func (r *postgresPaperRepository) List(ctx context.Context, statusFilter *models.PaperStatus) ([]*models.Paper, error) {
	query := `SELECT` + paperColumns + ` FROM papers`
	args := []interface{}{}
	if statusFilter != nil {
		query += ` WHERE status = $1`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	papers := make([]*models.Paper, 0)
	for rows.Next() {
		p := &models.Paper{}
		if err := r.scanPaper(rows, p); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return papers, nil
}

func (r *postgresPaperRepository) TransitionStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.PaperStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE papers SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to transition paper status: %w", err)
	}
	return checkAffectedRows(result, ErrPaperStatusConflict)
}

func (r *postgresPaperRepository) SetAccepted(ctx context.Context, id int, tier models.Tier) error {
	query := `
		UPDATE papers
		SET status = $1, admin_tier = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.StatusAcceptedUnpaid, tier, id, models.StatusAwaitingDecision)
	if err != nil {
		return fmt.Errorf("failed to accept paper: %w", err)
	}
	return checkAffectedRows(result, ErrPaperStatusConflict)
}

func (r *postgresPaperRepository) SetRejected(ctx context.Context, id int) error {
	query := `
		UPDATE papers
		SET status = $1, paper_key = NULL, plagiarism_key = NULL, updated_at = NOW()
		WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.StatusRejected, id, models.StatusAwaitingDecision)
	if err != nil {
		return fmt.Errorf("failed to reject paper: %w", err)
	}
	return checkAffectedRows(result, ErrPaperStatusConflict)
}

func (r *postgresPaperRepository) SetPaymentProof(ctx context.Context, id int, screenshotKey, senderName string) error {
	query := `
		UPDATE papers
		SET status = $1, payment_screenshot_key = $2, payment_sender_name = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query,
		models.StatusPaymentVerification, screenshotKey, senderName, id, models.StatusAcceptedUnpaid)
	if err != nil {
		return fmt.Errorf("failed to record payment proof: %w", err)
	}
	return checkAffectedRows(result, ErrPaperStatusConflict)
}

func (r *postgresPaperRepository) SetPaymentVerified(ctx context.Context, id int) error {
	// The screenshot blob is gone once payment is verified; the sender name
	// stays for the registration record.
	query := `
		UPDATE papers
		SET status = $1, payment_screenshot_key = NULL, updated_at = NOW()
		WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.StatusRegistered, id, models.StatusPaymentVerification)
	if err != nil {
		return fmt.Errorf("failed to verify payment: %w", err)
	}
	return checkAffectedRows(result, ErrPaperStatusConflict)
}

func (r *postgresPaperRepository) SetFinalSubmission(ctx context.Context, exec SQLExecutor, id int, cameraReadyKey, plagiarismReportKey, participationMode string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE papers
		SET camera_ready_key = $1, plagiarism_report_key = $2, participation_mode = $3,
			is_final_submitted = TRUE, updated_at = NOW()
		WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, cameraReadyKey, plagiarismReportKey, participationMode, id)
	if err != nil {
		return fmt.Errorf("failed to record final submission: %w", err)
	}
	return checkAffectedRows(result, ErrPaperNotFound)
}

func (r *postgresPaperRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count papers: %w", err)
	}
	return count, nil
}

func (r *postgresPaperRepository) CountByStatus(ctx context.Context) (map[models.PaperStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM papers GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.PaperStatus]int)
	for rows.Next() {
		var status models.PaperStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *postgresPaperRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Paper, error) {
	p := &models.Paper{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanPaper(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to find paper: %w", err)
	}
	return p, nil
}

func (r *postgresPaperRepository) scanPaper(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Paper) error {
	return rowScanner.Scan(
		&p.ID,
		&p.TeamID,
		&p.Title,
		&p.Domains,
		&p.Status,
		&p.AdminTier,
		&p.PaymentSenderName,
		&p.IsFinalSubmitted,
		&p.ParticipationMode,
		&p.PaperKey,
		&p.PlagiarismKey,
		&p.CameraReadyKey,
		&p.PlagiarismReportKey,
		&p.PaymentScreenshotKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
