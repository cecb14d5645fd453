// Package storage defines the repository interfaces the services depend on.
package storage

import (
	"context"
	"errors"

	"review-hub/internal/models"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrAnswerExists is returned when a request already has an answer.
	ErrAnswerExists = errors.New("request already has an answer")
	// ErrAlreadyEvaluated is returned when an answer already carries a point.
	ErrAlreadyEvaluated = errors.New("answer already evaluated")
)

// ListOptions carries paging and sorting parameters down to a repository.
// Offset/Limit are precomputed by the pagination layer; SortBy is already
// reduced to an allowlisted column name.
type ListOptions struct {
	Query     string
	Language  string
	SortBy    string
	Ascending bool
	Limit     int
	Offset    int
}

// UserRepository manages user accounts and reviewer capabilities.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListReviewers(ctx context.Context, opts ListOptions) ([]models.ReviewerSummary, int, error)
}

// RequestRepository manages review requests.
type RequestRepository interface {
	Create(ctx context.Context, request *models.ReviewRequest) error
	GetByID(ctx context.Context, id uint) (*models.ReviewRequest, error)
	GetDetail(ctx context.Context, id uint) (*models.RequestDetail, error)
	UpdateContent(ctx context.Context, id uint, title, content string) error
	UpdateReviewer(ctx context.Context, id, reviewerID uint) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, opts ListOptions) ([]models.RequestSummary, int, error)
}

// CommentRepository appends comments to a request's thread.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.ReviewComment) error
	ListByRequest(ctx context.Context, requestID uint) ([]models.CommentWithUser, error)
}

// AnswerRepository manages answers and the evaluation that freezes them.
type AnswerRepository interface {
	// Create inserts the answer, flips the request to ANSWERED and
	// increments the reviewer's answer count in one transaction.
	// Returns ErrAnswerExists if the request already has an answer.
	Create(ctx context.Context, answer *models.ReviewAnswer) error
	GetByID(ctx context.Context, id uint) (*models.ReviewAnswer, error)
	GetByRequestID(ctx context.Context, requestID uint) (*models.ReviewAnswer, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	// Evaluate fixes the answer's point and folds it into the reviewer's
	// aggregate in one transaction. Returns ErrAlreadyEvaluated if the
	// answer already carries a point.
	Evaluate(ctx context.Context, answerID, reviewerID uint, point float64) error
	ListByReviewer(ctx context.Context, reviewerID uint, opts ListOptions) ([]models.AnswerWithUser, int, error)
}
