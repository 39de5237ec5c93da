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
	ErrReviewerNotFound      = errors.New("reviewer not found")
	ErrReviewerEmailConflict = errors.New("reviewer email conflict")
)

type ReviewerRepository interface {
	Create(ctx context.Context, reviewer *models.Reviewer) error
	GetByID(ctx context.Context, id int) (*models.Reviewer, error)
	GetByEmail(ctx context.Context, email string) (*models.Reviewer, error)

	// ListByAnyDomain returns reviewers whose declared domain set intersects
	// the given one (set overlap, not exact match).
	ListByAnyDomain(ctx context.Context, domains []string) ([]*models.Reviewer, error)
}

type postgresReviewerRepository struct {
	db *sql.DB
}

func NewPostgresReviewerRepository(db *sql.DB) ReviewerRepository {
	return &postgresReviewerRepository{db: db}
}

func (r *postgresReviewerRepository) Create(ctx context.Context, reviewer *models.Reviewer) error {
	query := `
		INSERT INTO reviewers (name, email, access_code_hash, domains)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reviewer.Name,
		reviewer.Email,
		reviewer.AccessCodeHash,
		reviewer.Domains,
	).Scan(&reviewer.ID, &reviewer.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "reviewers_email_key" {
				return ErrReviewerEmailConflict
			}
		}
		return fmt.Errorf("failed to create reviewer: %w", err)
	}
	return nil
}

func (r *postgresReviewerRepository) GetByID(ctx context.Context, id int) (*models.Reviewer, error) {
	query := `SELECT id, name, email, access_code_hash, domains, created_at FROM reviewers WHERE id = $1`
	return r.scanReviewer(ctx, query, id)
}

func (r *postgresReviewerRepository) GetByEmail(ctx context.Context, email string) (*models.Reviewer, error) {
	query := `SELECT id, name, email, access_code_hash, domains, created_at FROM reviewers WHERE email = $1`
	return r.scanReviewer(ctx, query, email)
}

func (r *postgresReviewerRepository) ListByAnyDomain(ctx context.Context, domains []string) ([]*models.Reviewer, error) {
	query := `
		SELECT id, name, email, access_code_hash, domains, created_at
		FROM reviewers
		WHERE domains && $1`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(domains))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviewers := make([]*models.Reviewer, 0)
	for rows.Next() {
		reviewer := &models.Reviewer{}
		err := rows.Scan(
			&reviewer.ID,
			&reviewer.Name,
			&reviewer.Email,
			&reviewer.AccessCodeHash,
			&reviewer.Domains,
			&reviewer.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviewers = append(reviewers, reviewer)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reviewers, nil
}

func (r *postgresReviewerRepository) scanReviewer(ctx context.Context, query string, args ...interface{}) (*models.Reviewer, error) {
	reviewer := &models.Reviewer{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&reviewer.ID,
		&reviewer.Name,
		&reviewer.Email,
		&reviewer.AccessCodeHash,
		&reviewer.Domains,
		&reviewer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewerNotFound
		}
		return nil, err
	}
	return reviewer, nil
}
