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

// AnswerService handles answer submission and the one-time evaluation
// that freezes an answer and feeds the reviewer's rating.
type AnswerService struct {
	requestRepo storage.RequestRepository
	answerRepo  storage.AnswerRepository
}

// NewAnswerService creates a new answer service
func NewAnswerService(requestRepo storage.RequestRepository, answerRepo storage.AnswerRepository) *AnswerService {
	return &AnswerService{
		requestRepo: requestRepo,
		answerRepo:  answerRepo,
	}
}

// Submit attaches the answer to a request. Only the assigned reviewer
// may answer, and a request takes at most one answer.
func (s *AnswerService) Submit(ctx context.Context, requestID, reviewerID uint, content string) (*models.ReviewAnswer, error) {
	content = validator.SanitizeString(content)
	if err := validator.ValidateRequired("content", content); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid answer")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "request %d not found", requestID)
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}

	if request.ReviewerID != reviewerID {
		return nil, apperrors.New(apperrors.KindAuthorization, "only the assigned reviewer may answer")
	}

	answer := &models.ReviewAnswer{
		RequestID:  requestID,
		ReviewerID: reviewerID,
		Content:    content,
	}

	if err := s.answerRepo.Create(ctx, answer); err != nil {
		if errors.Is(err, storage.ErrAnswerExists) {
			return nil, apperrors.New(apperrors.KindConflict, "request %d already has an answer", requestID)
		}
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}

	return answer, nil
}

// Update rewrites an answer's content. An evaluated answer is frozen.
func (s *AnswerService) Update(ctx context.Context, answerID, actorID uint, content string) error {
	content = validator.SanitizeString(content)
	if err := validator.ValidateRequired("content", content); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid answer")
	}

	answer, err := s.getAnswer(ctx, answerID)
	if err != nil {
		return err
	}

	if answer.ReviewerID != actorID {
		return apperrors.New(apperrors.KindAuthorization, "only the answer's author may edit it")
	}

	if answer.Evaluated() {
		return apperrors.New(apperrors.KindConflict, "answer %d is already evaluated", answerID)
	}

	if err := s.answerRepo.UpdateContent(ctx, answerID, content); err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}

	return nil
}

// Evaluate scores the answer once and folds the score into the
// reviewer's aggregate rating. A repeat evaluation fails, it is never
// absorbed silently.
func (s *AnswerService) Evaluate(ctx context.Context, requestID, answerID, actorID uint, point float64) error {
	if err := validator.ValidatePoint(point); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid point")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.KindNotFound, "request %d not found", requestID)
		}
		return fmt.Errorf("failed to load request: %w", err)
	}

	if request.RequesterID != actorID {
		return apperrors.New(apperrors.KindAuthorization, "only the requester may evaluate the answer")
	}

	answer, err := s.getAnswer(ctx, answerID)
	if err != nil {
		return err
	}

	if answer.RequestID != requestID {
		return apperrors.New(apperrors.KindNotFound, "answer %d does not belong to request %d", answerID, requestID)
	}

	if err := s.answerRepo.Evaluate(ctx, answerID, answer.ReviewerID, point); err != nil {
		if errors.Is(err, storage.ErrAlreadyEvaluated) {
			return apperrors.New(apperrors.KindConflict, "answer %d is already evaluated", answerID)
		}
		return fmt.Errorf("failed to evaluate answer: %w", err)
	}

	return nil
}

// ListByReviewer returns a page of the reviewer's answers.
func (s *AnswerService) ListByReviewer(ctx context.Context, reviewerID uint, params pagination.Params) (pagination.Page[models.AnswerWithUser], error) {
	opts := storage.ListOptions{
		SortBy:    params.SortBy,
		Ascending: params.Ascending,
		Limit:     params.Size,
		Offset:    params.Offset(),
	}

	answers, total, err := s.answerRepo.ListByReviewer(ctx, reviewerID, opts)
	if err != nil {
		return pagination.Page[models.AnswerWithUser]{}, fmt.Errorf("failed to list answers: %w", err)
	}

	return pagination.NewPage(answers, total, params), nil
}

func (s *AnswerService) getAnswer(ctx context.Context, answerID uint) (*models.ReviewAnswer, error) {
	answer, err := s.answerRepo.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "answer %d not found", answerID)
		}
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}
	return answer, nil
}
