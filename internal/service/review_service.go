package service

import (
	"context"
	"errors"
	"fmt"

	"review-hub/internal/apperrors"
	"review-hub/internal/models"
	"review-hub/internal/pagination"
	"review-hub/internal/storage"
	"review-hub/pkg/validator"
)

// ReviewService handles review request business logic
type ReviewService struct {
	userRepo    storage.UserRepository
	requestRepo storage.RequestRepository
	commentRepo storage.CommentRepository
}

// NewReviewService creates a new review service
func NewReviewService(
	userRepo storage.UserRepository,
	requestRepo storage.RequestRepository,
	commentRepo storage.CommentRepository,
) *ReviewService {
	return &ReviewService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		commentRepo: commentRepo,
	}
}

// CreateRequestInput carries the fields for a new review request.
type CreateRequestInput struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"required"`
	Language   string `json:"language" validate:"required"`
	ReviewerID uint   `json:"reviewer_id" validate:"required"`
}

// Create opens a new review request assigned to a reviewer qualified
// in the request's language.
func (s *ReviewService) Create(ctx context.Context, requesterID uint, input CreateRequestInput) (*models.ReviewRequest, error) {
	input.Title = validator.SanitizeString(input.Title)
	input.Content = validator.SanitizeString(input.Content)
	input.Language = validator.NormalizeLanguage(input.Language)

	if err := validator.ValidateStruct(&input); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid request")
	}

	reviewer, err := s.userRepo.GetByID(ctx, input.ReviewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "reviewer %d not found", input.ReviewerID)
		}
		return nil, fmt.Errorf("failed to resolve reviewer: %w", err)
	}

	if !reviewer.QualifiedIn(input.Language) {
		return nil, apperrors.New(apperrors.KindCapability,
			"user %d cannot review %s requests", input.ReviewerID, input.Language)
	}

	request := &models.ReviewRequest{
		RequesterID: requesterID,
		ReviewerID:  input.ReviewerID,
		Title:       input.Title,
		Content:     input.Content,
		Language:    input.Language,
		Status:      models.StatusUnsolved,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return request, nil
}

// UpdateRequestInput carries the editable fields of a request.
type UpdateRequestInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// Update rewrites a request's title and content. Only the requester may
// edit, and edits stay allowed after an answer arrives: the edit is a
// correction of the ask, not a workflow step.
func (s *ReviewService) Update(ctx context.Context, requestID, actorID uint, input UpdateRequestInput) error {
	input.Title = validator.SanitizeString(input.Title)
	input.Content = validator.SanitizeString(input.Content)

	if err := validator.ValidateStruct(&input); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid request")
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if request.RequesterID != actorID {
		return apperrors.New(apperrors.KindAuthorization, "only the requester may edit the request")
	}

	if err := s.requestRepo.UpdateContent(ctx, requestID, input.Title, input.Content); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	return nil
}

// Delete removes a request with its answer and comment thread.
func (s *ReviewService) Delete(ctx context.Context, requestID, actorID uint) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if request.RequesterID != actorID {
		return apperrors.New(apperrors.KindAuthorization, "only the requester may delete the request")
	}

	if err := s.requestRepo.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	return nil
}

// Get returns a request with its answer and comment thread.
func (s *ReviewService) Get(ctx context.Context, requestID uint) (*models.RequestDetail, error) {
	detail, err := s.requestRepo.GetDetail(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "request %d not found", requestID)
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return detail, nil
}

// List returns a page of request summaries, optionally narrowed by a
// title query.
func (s *ReviewService) List(ctx context.Context, query string, params pagination.Params) (pagination.Page[models.RequestSummary], error) {
	return s.list(ctx, storage.ListOptions{Query: validator.SanitizeString(query)}, params)
}

// ListByLanguage returns a page of request summaries for one language.
func (s *ReviewService) ListByLanguage(ctx context.Context, language string, params pagination.Params) (pagination.Page[models.RequestSummary], error) {
	language = validator.NormalizeLanguage(language)
	if language == "" {
		return pagination.Page[models.RequestSummary]{}, apperrors.New(apperrors.KindValidation, "language is required")
	}
	return s.list(ctx, storage.ListOptions{Language: language}, params)
}

func (s *ReviewService) list(ctx context.Context, opts storage.ListOptions, params pagination.Params) (pagination.Page[models.RequestSummary], error) {
	opts.SortBy = params.SortBy
	opts.Ascending = params.Ascending
	opts.Limit = params.Size
	opts.Offset = params.Offset()

	summaries, total, err := s.requestRepo.List(ctx, opts)
	if err != nil {
		return pagination.Page[models.RequestSummary]{}, fmt.Errorf("failed to list requests: %w", err)
	}

	return pagination.NewPage(summaries, total, params), nil
}

// AddComment appends a comment to a request's thread. Any existing user
// may comment; identical comments are kept as distinct entries.
func (s *ReviewService) AddComment(ctx context.Context, requestID, authorID uint, content string) (*models.ReviewComment, error) {
	content = validator.SanitizeString(content)
	if err := validator.ValidateRequired("content", content); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid comment")
	}

	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "user %d not found", authorID)
		}
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}

	comment := &models.ReviewComment{
		RequestID: requestID,
		AuthorID:  authorID,
		Content:   content,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

func (s *ReviewService) getRequest(ctx context.Context, requestID uint) (*models.ReviewRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "request %d not found", requestID)
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return request, nil
}
