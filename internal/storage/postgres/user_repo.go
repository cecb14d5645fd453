// Package postgres implements the storage interfaces over PostgreSQL.
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

const uniqueViolation = "23505"

// UserRepo handles user database operations
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create creates a new user together with its reviewer languages
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO users (username, password_hash, nickname, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Nickname,
		user.Role,
		now,
		now,
	).Scan(&user.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	for _, language := range user.Languages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reviewer_languages (user_id, language) VALUES ($1, $2)`,
			user.ID, language,
		); err != nil {
			return fmt.Errorf("failed to add reviewer language: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, nickname, role,
		       answer_count, evaluation_count, evaluation_total, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(ctx, r.db.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, nickname, role,
		       answer_count, evaluation_count, evaluation_total, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return r.scanUser(ctx, r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepo) scanUser(ctx context.Context, row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Nickname,
		&user.Role,
		&user.AnswerCount,
		&user.EvaluationCount,
		&user.EvaluationTotal,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role == models.RoleReviewer {
		languages, err := r.getLanguages(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.Languages = languages
	}

	return user, nil
}

func (r *UserRepo) getLanguages(ctx context.Context, userID uint) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT language FROM reviewer_languages WHERE user_id = $1 ORDER BY language`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewer languages: %w", err)
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var language string
		if err := rows.Scan(&language); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, language)
	}

	return languages, nil
}

// ListReviewers retrieves reviewers with their aggregate rating, optionally
// filtered to one qualified language
func (r *UserRepo) ListReviewers(ctx context.Context, opts storage.ListOptions) ([]models.ReviewerSummary, int, error) {
	where := `u.role = 'REVIEWER'`
	args := []any{}
	argPos := 1

	if opts.Language != "" {
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM reviewer_languages rl WHERE rl.user_id = u.id AND rl.language = $%d
		)`, argPos)
		args = append(args, opts.Language)
		argPos++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users u WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviewers: %w", err)
	}

	sortColumn := "u.created_at"
	switch opts.SortBy {
	case "average":
		sortColumn = "CASE WHEN u.evaluation_count = 0 THEN 0 ELSE u.evaluation_total / u.evaluation_count END"
	case "answerCount":
		sortColumn = "u.answer_count"
	}
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.username, u.nickname, u.answer_count, u.evaluation_count, u.evaluation_total,
		       COALESCE(ARRAY_AGG(rl.language ORDER BY rl.language)
		                FILTER (WHERE rl.language IS NOT NULL), '{}') AS languages
		FROM users u
		LEFT JOIN reviewer_languages rl ON rl.user_id = u.id
		WHERE %s
		GROUP BY u.id
		ORDER BY %s %s, u.id ASC
		LIMIT $%d OFFSET $%d
	`, where, sortColumn, direction, argPos, argPos+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviewers: %w", err)
	}
	defer rows.Close()

	var reviewers []models.ReviewerSummary
	for rows.Next() {
		var rev models.ReviewerSummary
		var evaluationTotal float64
		if err := rows.Scan(
			&rev.ID,
			&rev.Username,
			&rev.Nickname,
			&rev.AnswerCount,
			&rev.EvaluationCount,
			&evaluationTotal,
			pq.Array(&rev.Languages),
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan reviewer: %w", err)
		}
		if rev.EvaluationCount > 0 {
			rev.Average = evaluationTotal / float64(rev.EvaluationCount)
		}
		reviewers = append(reviewers, rev)
	}

	return reviewers, total, nil
}
