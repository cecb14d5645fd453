package service

import (
	"context"
	"testing"

	"review-hub/internal/models"
	"review-hub/internal/storage/memory"
)

type fixture struct {
	store       *memory.Store
	reviewSvc   *ReviewService
	answerSvc   *AnswerService
	reviewerSvc *ReviewerService
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store:       store,
		reviewSvc:   NewReviewService(store, store.Requests(), store.Comments()),
		answerSvc:   NewAnswerService(store.Requests(), store.Answers()),
		reviewerSvc: NewReviewerService(store, store.Requests(), store.Answers()),
	}
}

func (f *fixture) addUser(t *testing.T, username string, role models.Role, languages ...string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		Nickname:     username,
		Role:         role,
		Languages:    languages,
	}
	if err := f.store.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

func (f *fixture) addRequest(t *testing.T, requesterID, reviewerID uint, language string) *models.ReviewRequest {
	t.Helper()
	request, err := f.reviewSvc.Create(context.Background(), requesterID, CreateRequestInput{
		Title:      "Please review my code",
		Content:    "Here it is.",
		Language:   language,
		ReviewerID: reviewerID,
	})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	return request
}
