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

// ReviewerService handles the reviewer directory and reassignment.
type ReviewerService struct {
	userRepo    storage.UserRepository
	requestRepo storage.RequestRepository
	answerRepo  storage.AnswerRepository
}

// NewReviewerService creates a new reviewer service
func NewReviewerService(
	userRepo storage.UserRepository,
	requestRepo storage.RequestRepository,
	answerRepo storage.AnswerRepository,
) *ReviewerService {
	return &ReviewerService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		answerRepo:  answerRepo,
	}
}

// Reassign hands a request off to another reviewer. Only the currently
// assigned reviewer may hand off, the candidate must be qualified in the
// request's language, and an answered request can no longer move.
func (s *ReviewerService) Reassign(ctx context.Context, requestID, actorID, newReviewerID uint) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.KindNotFound, "request %d not found", requestID)
		}
		return fmt.Errorf("failed to load request: %w", err)
	}

	if request.ReviewerID != actorID {
		return apperrors.New(apperrors.KindAuthorization, "only the assigned reviewer may hand off the request")
	}

	if request.Status == models.StatusAnswered {
		return apperrors.New(apperrors.KindConflict, "request %d is already answered", requestID)
	}

	candidate, err := s.userRepo.GetByID(ctx, newReviewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.KindNotFound, "reviewer %d not found", newReviewerID)
		}
		return fmt.Errorf("failed to resolve reviewer: %w", err)
	}

	if !candidate.QualifiedIn(request.Language) {
		return apperrors.New(apperrors.KindCapability,
			"user %d cannot review %s requests", newReviewerID, request.Language)
	}

	if err := s.requestRepo.UpdateReviewer(ctx, requestID, newReviewerID); err != nil {
		return fmt.Errorf("failed to reassign reviewer: %w", err)
	}

	return nil
}

// List returns a page of reviewers, optionally narrowed to one language.
func (s *ReviewerService) List(ctx context.Context, language string, params pagination.Params) (pagination.Page[models.ReviewerSummary], error) {
	opts := storage.ListOptions{
		Language:  validator.NormalizeLanguage(language),
		SortBy:    params.SortBy,
		Ascending: params.Ascending,
		Limit:     params.Size,
		Offset:    params.Offset(),
	}

	reviewers, total, err := s.userRepo.ListReviewers(ctx, opts)
	if err != nil {
		return pagination.Page[models.ReviewerSummary]{}, fmt.Errorf("failed to list reviewers: %w", err)
	}

	return pagination.NewPage(reviewers, total, params), nil
}
