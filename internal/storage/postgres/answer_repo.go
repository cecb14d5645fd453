package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"review-hub/internal/models"
	"review-hub/internal/storage"
)

// AnswerRepo handles answer database operations
type AnswerRepo struct {
	db *sql.DB
}

// NewAnswerRepo creates a new answer repository
func NewAnswerRepo(db *sql.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Create inserts the answer, marks the request answered and counts the
// reviewer's answer, all in one transaction. The UNIQUE constraint on
// request_id enforces the at-most-one-answer invariant.
func (r *AnswerRepo) Create(ctx context.Context, answer *models.ReviewAnswer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO review_answers (request_id, reviewer_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, answer.RequestID, answer.ReviewerID, answer.Content, now, now).Scan(&answer.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrAnswerExists
		}
		return fmt.Errorf("failed to create answer: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE review_requests SET status = $1, updated_at = $2 WHERE id = $3
	`, models.StatusAnswered, now, answer.RequestID); err != nil {
		return fmt.Errorf("failed to mark request answered: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET answer_count = answer_count + 1, updated_at = $1 WHERE id = $2
	`, now, answer.ReviewerID); err != nil {
		return fmt.Errorf("failed to increment answer count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit answer: %w", err)
	}

	answer.CreatedAt = now
	answer.UpdatedAt = now
	return nil
}

// GetByID retrieves an answer by ID
func (r *AnswerRepo) GetByID(ctx context.Context, id uint) (*models.ReviewAnswer, error) {
	return r.getAnswer(ctx, `WHERE id = $1`, id)
}

// GetByRequestID retrieves the answer attached to a request
func (r *AnswerRepo) GetByRequestID(ctx context.Context, requestID uint) (*models.ReviewAnswer, error) {
	return r.getAnswer(ctx, `WHERE request_id = $1`, requestID)
}

func (r *AnswerRepo) getAnswer(ctx context.Context, where string, arg any) (*models.ReviewAnswer, error) {
	query := `
		SELECT id, request_id, reviewer_id, content, point, created_at, updated_at
		FROM review_answers ` + where

	answer := &models.ReviewAnswer{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&answer.ID,
		&answer.RequestID,
		&answer.ReviewerID,
		&answer.Content,
		&answer.Point,
		&answer.CreatedAt,
		&answer.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	return answer, nil
}

// UpdateContent updates an answer's content
func (r *AnswerRepo) UpdateContent(ctx context.Context, id uint, content string) error {
	query := `
		UPDATE review_answers
		SET content = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, content, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return ensureFound(result)
}

// Evaluate fixes the answer's point and folds it into the reviewer's
// aggregate in one transaction. The guarded UPDATE makes a repeat
// evaluation fail instead of counting twice, and the single-statement
// increment of the aggregate serializes concurrent evaluations of the
// same reviewer at the row level.
func (r *AnswerRepo) Evaluate(ctx context.Context, answerID, reviewerID uint, point float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		UPDATE review_answers
		SET point = $1, updated_at = $2
		WHERE id = $3 AND point IS NULL
	`, point, now, answerID)
	if err != nil {
		return fmt.Errorf("failed to set answer point: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrAlreadyEvaluated
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET evaluation_total = evaluation_total + $1,
		    evaluation_count = evaluation_count + 1,
		    updated_at = $2
		WHERE id = $3
	`, point, now, reviewerID); err != nil {
		return fmt.Errorf("failed to update reviewer aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit evaluation: %w", err)
	}

	return nil
}

// ListByReviewer retrieves a page of a reviewer's answers
func (r *AnswerRepo) ListByReviewer(ctx context.Context, reviewerID uint, opts storage.ListOptions) ([]models.AnswerWithUser, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM review_answers WHERE reviewer_id = $1`,
		reviewerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count answers: %w", err)
	}

	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.request_id, a.reviewer_id, a.content, a.point, a.created_at, a.updated_at,
		       u.username, u.nickname
		FROM review_answers a
		JOIN users u ON u.id = a.reviewer_id
		WHERE a.reviewer_id = $1
		ORDER BY a.created_at %s, a.id ASC
		LIMIT $2 OFFSET $3
	`, direction)

	rows, err := r.db.QueryContext(ctx, query, reviewerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []models.AnswerWithUser
	for rows.Next() {
		var a models.AnswerWithUser
		if err := rows.Scan(
			&a.ID,
			&a.RequestID,
			&a.ReviewerID,
			&a.Content,
			&a.Point,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.ReviewerName,
			&a.ReviewerNickname,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}

	return answers, total, nil
}
