package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"review-hub/internal/models"
)

// CommentRepo handles comment database operations
type CommentRepo struct {
	db *sql.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// Create appends a comment to a request's thread
func (r *CommentRepo) Create(ctx context.Context, comment *models.ReviewComment) error {
	query := `
		INSERT INTO review_comments (request_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		comment.RequestID,
		comment.AuthorID,
		comment.Content,
		now,
	).Scan(&comment.ID)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	comment.CreatedAt = now
	return nil
}

// ListByRequest retrieves a request's comments in insertion order
func (r *CommentRepo) ListByRequest(ctx context.Context, requestID uint) ([]models.CommentWithUser, error) {
	query := `
		SELECT c.id, c.request_id, c.author_id, c.content, c.created_at, u.username, u.nickname
		FROM review_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.request_id = $1
		ORDER BY c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.CommentWithUser
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
		comments = append(comments, comment)
	}

	return comments, nil
}
