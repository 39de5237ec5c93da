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
	ErrReviewNotFound         = errors.New("review not found")
	ErrReviewConflict         = errors.New("reviewer is already assigned to this paper")
	ErrReviewAlreadyCompleted = errors.New("review has already been submitted")
)

type ReviewRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, reviews []*models.Review) error
	GetByID(ctx context.Context, id int) (*models.Review, error)
	ListByReviewerID(ctx context.Context, reviewerID int) ([]*models.Review, error)
	ListByPaperID(ctx context.Context, paperID int) ([]*models.Review, error)

	// SubmitDecision completes a review. The update is conditional on the
	// review not being completed yet, so a racing second submission loses
	// with ErrReviewAlreadyCompleted.
	SubmitDecision(ctx context.Context, id int, decision models.ReviewDecision, tier *models.Tier, feedback string) error

	MarkViewed(ctx context.Context, id int) error
	CountDecisions(ctx context.Context, paperID int) (accepts, rejects int, err error)
	ListAcceptedTiers(ctx context.Context, paperID int) ([]models.Tier, error)
	CountPending(ctx context.Context) (int, error)
}

type postgresReviewRepository struct {
	db *sql.DB
}

func NewPostgresReviewRepository(db *sql.DB) ReviewRepository {
	return &postgresReviewRepository{db: db}
}

func (r *postgresReviewRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresReviewRepository) CreateBatch(ctx context.Context, exec SQLExecutor, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO reviews (paper_id, reviewer_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	for _, review := range reviews {
		err := executor.QueryRowContext(ctx, query, review.PaperID, review.ReviewerID).
			Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				if pqErr.Constraint == "reviews_paper_id_reviewer_id_key" {
					return ErrReviewConflict
				}
			}
			return fmt.Errorf("failed to create review for paper %d: %w", review.PaperID, err)
		}
	}
	return nil
}

func (r *postgresReviewRepository) GetByID(ctx context.Context, id int) (*models.Review, error) {
	query := `
		SELECT id, paper_id, reviewer_id, decision, tier, feedback, is_completed, viewed_at, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	review := &models.Review{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.PaperID,
		&review.ReviewerID,
		&review.Decision,
		&review.Tier,
		&review.Feedback,
		&review.IsCompleted,
		&review.ViewedAt,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return review, nil
}

// ListByReviewerID returns the reviewer's assignments with the paper
// embedded, which is what the reviewer-facing listing renders.
func (r *postgresReviewRepository) ListByReviewerID(ctx context.Context, reviewerID int) ([]*models.Review, error) {
	query := `
		SELECT
			rv.id, rv.paper_id, rv.reviewer_id, rv.decision, rv.tier, rv.feedback,
			rv.is_completed, rv.viewed_at, rv.created_at, rv.updated_at,
			p.id, p.team_id, p.title, p.domains, p.status, p.paper_key, p.plagiarism_key
		FROM reviews rv
		JOIN papers p ON rv.paper_id = p.id
		WHERE rv.reviewer_id = $1
		ORDER BY rv.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, reviewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review := &models.Review{}
		paper := &models.Paper{}
		err := rows.Scan(
			&review.ID,
			&review.PaperID,
			&review.ReviewerID,
			&review.Decision,
			&review.Tier,
			&review.Feedback,
			&review.IsCompleted,
			&review.ViewedAt,
			&review.CreatedAt,
			&review.UpdatedAt,
			&paper.ID,
			&paper.TeamID,
			&paper.Title,
			&paper.Domains,
			&paper.Status,
			&paper.PaperKey,
			&paper.PlagiarismKey,
		)
		if err != nil {
			return nil, err
		}
		review.Paper = paper
		reviews = append(reviews, review)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListByPaperID returns a paper's reviews with the reviewer embedded, for the
// admin decision view.
func (r *postgresReviewRepository) ListByPaperID(ctx context.Context, paperID int) ([]*models.Review, error) {
	query := `
		SELECT
			rv.id, rv.paper_id, rv.reviewer_id, rv.decision, rv.tier, rv.feedback,
			rv.is_completed, rv.viewed_at, rv.created_at, rv.updated_at,
			rw.id, rw.name, rw.email, rw.domains
		FROM reviews rv
		JOIN reviewers rw ON rv.reviewer_id = rw.id
		WHERE rv.paper_id = $1
		ORDER BY rv.id ASC`

	rows, err := r.db.QueryContext(ctx, query, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review := &models.Review{}
		reviewer := &models.Reviewer{}
		err := rows.Scan(
			&review.ID,
			&review.PaperID,
			&review.ReviewerID,
			&review.Decision,
			&review.Tier,
			&review.Feedback,
			&review.IsCompleted,
			&review.ViewedAt,
			&review.CreatedAt,
			&review.UpdatedAt,
			&reviewer.ID,
			&reviewer.Name,
			&reviewer.Email,
			&reviewer.Domains,
		)
		if err != nil {
			return nil, err
		}
		review.Reviewer = reviewer
		reviews = append(reviews, review)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *postgresReviewRepository) SubmitDecision(ctx context.Context, id int, decision models.ReviewDecision, tier *models.Tier, feedback string) error {
	query := `
		UPDATE reviews
		SET decision = $1, tier = $2, feedback = $3, is_completed = TRUE, updated_at = NOW()
		WHERE id = $4 AND is_completed = FALSE`
	result, err := r.db.ExecContext(ctx, query, decision, tier, feedback, id)
	if err != nil {
		return fmt.Errorf("failed to submit review decision: %w", err)
	}
	return checkAffectedRows(result, ErrReviewAlreadyCompleted)
}

func (r *postgresReviewRepository) MarkViewed(ctx context.Context, id int) error {
	// Only the first view is recorded; later calls are no-ops.
	query := `UPDATE reviews SET viewed_at = NOW() WHERE id = $1 AND viewed_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark review viewed: %w", err)
	}
	return nil
}

func (r *postgresReviewRepository) CountDecisions(ctx context.Context, paperID int) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE decision = $1),
			COUNT(*) FILTER (WHERE decision = $2)
		FROM reviews
		WHERE paper_id = $3 AND is_completed = TRUE`

	var accepts, rejects int
	err := r.db.QueryRowContext(ctx, query, models.DecisionAccept, models.DecisionReject, paperID).
		Scan(&accepts, &rejects)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count review decisions: %w", err)
	}
	return accepts, rejects, nil
}

func (r *postgresReviewRepository) ListAcceptedTiers(ctx context.Context, paperID int) ([]models.Tier, error) {
	query := `
		SELECT tier
		FROM reviews
		WHERE paper_id = $1 AND is_completed = TRUE AND decision = $2 AND tier IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, paperID, models.DecisionAccept)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]models.Tier, 0)
	for rows.Next() {
		var t models.Tier
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *postgresReviewRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE is_completed = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending reviews: %w", err)
	}
	return count, nil
}
