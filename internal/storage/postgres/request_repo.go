package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"review-hub/internal/models"
	"review-hub/internal/storage"
)

// RequestRepo handles review request database operations
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo creates a new review request repository
func NewRequestRepo(db *sql.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

// Create creates a new review request
func (r *RequestRepo) Create(ctx context.Context, request *models.ReviewRequest) error {
	query := `
		INSERT INTO review_requests (requester_id, reviewer_id, title, content, language, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		request.RequesterID,
		request.ReviewerID,
		request.Title,
		request.Content,
		request.Language,
		request.Status,
		now,
		now,
	).Scan(&request.ID)

	if err != nil {
		return fmt.Errorf("failed to create review request: %w", err)
	}

	request.CreatedAt = now
	request.UpdatedAt = now
	return nil
}

// GetByID retrieves a review request by ID
func (r *RequestRepo) GetByID(ctx context.Context, id uint) (*models.ReviewRequest, error) {
	query := `
		SELECT id, requester_id, reviewer_id, title, content, language, status, created_at, updated_at
		FROM review_requests
		WHERE id = $1
	`

	request := &models.ReviewRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.RequesterID,
		&request.ReviewerID,
		&request.Title,
		&request.Content,
		&request.Language,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review request: %w", err)
	}

	return request, nil
}

// GetDetail retrieves a request together with its answer and comment thread
func (r *RequestRepo) GetDetail(ctx context.Context, id uint) (*models.RequestDetail, error) {
	query := `
		SELECT rr.id, rr.requester_id, rr.reviewer_id, rr.title, rr.content, rr.language,
		       rr.status, rr.created_at, rr.updated_at, u.username, u.nickname
		FROM review_requests rr
		JOIN users u ON u.id = rr.requester_id
		WHERE rr.id = $1
	`

	detail := &models.RequestDetail{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID,
		&detail.RequesterID,
		&detail.ReviewerID,
		&detail.Title,
		&detail.Content,
		&detail.Language,
		&detail.Status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.RequesterName,
		&detail.RequesterNickname,
	)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request detail: %w", err)
	}

	answerQuery := `
		SELECT a.id, a.request_id, a.reviewer_id, a.content, a.point, a.created_at, a.updated_at,
		       u.username, u.nickname
		FROM review_answers a
		JOIN users u ON u.id = a.reviewer_id
		WHERE a.request_id = $1
	`
	answer := &models.AnswerWithUser{}
	err = r.db.QueryRowContext(ctx, answerQuery, id).Scan(
		&answer.ID,
		&answer.RequestID,
		&answer.ReviewerID,
		&answer.Content,
		&answer.Point,
		&answer.CreatedAt,
		&answer.UpdatedAt,
		&answer.ReviewerName,
		&answer.ReviewerNickname,
	)
	if err == nil {
		detail.Answer = answer
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get request answer: %w", err)
	}

	commentsQuery := `
		SELECT c.id, c.request_id, c.author_id, c.content, c.created_at, u.username, u.nickname
		FROM review_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.request_id = $1
		ORDER BY c.id ASC
	`
	rows, err := r.db.QueryContext(ctx, commentsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var comment models.CommentWithUser
		if err := rows.Scan(
			&comment.ID,
			&comment.RequestID,
			&comment.AuthorID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.AuthorName,
			&comment.AuthorNickname,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		detail.Comments = append(detail.Comments, comment)
	}

	return detail, nil
}

// UpdateContent updates a request's title and content
func (r *RequestRepo) UpdateContent(ctx context.Context, id uint, title, content string) error {
	query := `
		UPDATE review_requests
		SET title = $1, content = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, title, content, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update review request: %w", err)
	}
	return ensureFound(result)
}

// UpdateReviewer replaces the assigned reviewer
func (r *RequestRepo) UpdateReviewer(ctx context.Context, id, reviewerID uint) error {
	query := `
		UPDATE review_requests
		SET reviewer_id = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, reviewerID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update reviewer: %w", err)
	}
	return ensureFound(result)
}

// Delete removes a request; its answer and comments go with it via cascade
func (r *RequestRepo) Delete(ctx context.Context, id uint) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review request: %w", err)
	}
	return ensureFound(result)
}

// List retrieves a page of request summaries
func (r *RequestRepo) List(ctx context.Context, opts storage.ListOptions) ([]models.RequestSummary, int, error) {
	where := `1=1`
	args := []any{}
	argPos := 1

	if opts.Query != "" {
		where += fmt.Sprintf(` AND rr.title ILIKE $%d`, argPos)
		args = append(args, "%"+opts.Query+"%")
		argPos++
	}
	if opts.Language != "" {
		where += fmt.Sprintf(` AND rr.language = $%d`, argPos)
		args = append(args, opts.Language)
		argPos++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM review_requests rr WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count review requests: %w", err)
	}

	sortColumn := "rr.created_at"
	if opts.SortBy == "title" {
		sortColumn = "rr.title"
	}
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT rr.id, rr.requester_id, rr.reviewer_id, rr.title, rr.content, rr.language,
		       rr.status, rr.created_at, rr.updated_at, u.username, u.nickname,
		       (SELECT COUNT(*) FROM review_comments c WHERE c.request_id = rr.id) AS comment_count
		FROM review_requests rr
		JOIN users u ON u.id = rr.requester_id
		WHERE %s
		ORDER BY %s %s, rr.id ASC
		LIMIT $%d OFFSET $%d
	`, where, sortColumn, direction, argPos, argPos+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list review requests: %w", err)
	}
	defer rows.Close()

	var summaries []models.RequestSummary
	for rows.Next() {
		var s models.RequestSummary
		if err := rows.Scan(
			&s.ID,
			&s.RequesterID,
			&s.ReviewerID,
			&s.Title,
			&s.Content,
			&s.Language,
			&s.Status,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.RequesterName,
			&s.RequesterNickname,
			&s.CommentCount,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan request summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, total, nil
}

func ensureFound(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
