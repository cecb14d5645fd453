package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"review-hub/internal/apperrors"
	"review-hub/internal/models"
)

func TestSubmitAnswer(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "alice", models.RoleRequester)
	reviewer := f.addUser(t, "bob", models.RoleReviewer, "JAVA")
	request := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")

	answer, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "Use a map.")
	if err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}
	if answer.Evaluated() {
		t.Error("Fresh answer should not carry a point")
	}

	detail, err := f.reviewSvc.Get(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("Failed to load request: %v", err)
	}
	if detail.Status != models.StatusAnswered {
		t.Errorf("Expected status ANSWERED after submit, got %s", detail.Status)
	}

	updated, err := f.store.GetByID(context.Background(), reviewer.ID)
	if err != nil {
		t.Fatalf("Failed to load reviewer: %v", err)
	}
	if updated.AnswerCount != 1 {
		t.Errorf("Expected answer count 1, got %d", updated.AnswerCount)
	}
}

func TestSubmitAnswerRules(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "alice", models.RoleRequester)
	reviewer := f.addUser(t, "bob", models.RoleReviewer, "JAVA")
	other := f.addUser(t, "carol", models.RoleReviewer, "JAVA")
	request := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")

	if _, err := f.answerSvc.Submit(context.Background(), request.ID, other.ID, "Mine!"); !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Errorf("Expected authorization error for non-assigned reviewer, got %v", err)
	}

	if _, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "  "); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("Expected validation error for blank answer, got %v", err)
	}

	if _, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "First."); err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}

	// At most one answer per request
	if _, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "Second."); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("Expected conflict error for second answer, got %v", err)
	}
}

func TestUpdateAnswer(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "alice", models.RoleRequester)
	reviewer := f.addUser(t, "bob", models.RoleReviewer, "JAVA")
	request := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")

	answer, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "Draft.")
	if err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}

	if err := f.answerSvc.Update(context.Background(), answer.ID, requester.ID, "Hijack"); !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Errorf("Expected authorization error for non-author edit, got %v", err)
	}

	if err := f.answerSvc.Update(context.Background(), answer.ID, reviewer.ID, "Polished."); err != nil {
		t.Fatalf("Author should be able to edit, got %v", err)
	}

	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, requester.ID, 4.0); err != nil {
		t.Fatalf("Failed to evaluate answer: %v", err)
	}

	// Evaluation freezes the answer
	if err := f.answerSvc.Update(context.Background(), answer.ID, reviewer.ID, "Too late."); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("Expected conflict error for post-evaluation edit, got %v", err)
	}
}

func TestEvaluateAnswer(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "alice", models.RoleRequester)
	reviewer := f.addUser(t, "bob", models.RoleReviewer, "JAVA")
	request := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")

	answer, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "Use a map.")
	if err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}

	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, reviewer.ID, 4.5); !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Errorf("Expected authorization error for non-requester, got %v", err)
	}

	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, requester.ID, 5.5); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("Expected validation error for out-of-range point, got %v", err)
	}

	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, requester.ID, 4.5); err != nil {
		t.Fatalf("Failed to evaluate answer: %v", err)
	}

	updated, err := f.store.GetByID(context.Background(), reviewer.ID)
	if err != nil {
		t.Fatalf("Failed to load reviewer: %v", err)
	}
	if updated.EvaluationCount != 1 {
		t.Errorf("Expected evaluation count 1, got %d", updated.EvaluationCount)
	}
	if updated.Average() != 4.5 {
		t.Errorf("First evaluation should set the average to 4.5, got %v", updated.Average())
	}

	// Evaluation is one-time, a repeat must fail rather than absorb
	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, requester.ID, 3.0); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("Expected conflict error for repeat evaluation, got %v", err)
	}

	updated, _ = f.store.GetByID(context.Background(), reviewer.ID)
	if updated.EvaluationCount != 1 || updated.Average() != 4.5 {
		t.Error("Failed repeat evaluation must not touch the aggregate")
	}
}

func TestEvaluateAnswerWrongRequest(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "alice", models.RoleRequester)
	reviewer := f.addUser(t, "bob", models.RoleReviewer, "JAVA")
	first := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")
	second := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")

	answer, err := f.answerSvc.Submit(context.Background(), first.ID, reviewer.ID, "Use a map.")
	if err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}

	if err := f.answerSvc.Evaluate(context.Background(), second.ID, answer.ID, requester.ID, 4.0); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Expected not-found error for answer under a different request, got %v", err)
	}
}

func TestConcurrentEvaluations(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "alice", models.RoleRequester)
	reviewer := f.addUser(t, "bob", models.RoleReviewer, "JAVA")

	const n = 20
	points := make([]float64, n)
	answerIDs := make([]uint, n)
	requestIDs := make([]uint, n)
	var sum float64
	for i := 0; i < n; i++ {
		points[i] = float64(i%11) * 0.5
		sum += points[i]

		request := f.addRequest(t, requester.ID, reviewer.ID, "JAVA")
		answer, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "Answer.")
		if err != nil {
			t.Fatalf("Failed to submit answer %d: %v", i, err)
		}
		requestIDs[i] = request.ID
		answerIDs[i] = answer.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.answerSvc.Evaluate(context.Background(), requestIDs[i], answerIDs[i], requester.ID, points[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Evaluation %d failed: %v", i, err)
		}
	}

	updated, err := f.store.GetByID(context.Background(), reviewer.ID)
	if err != nil {
		t.Fatalf("Failed to load reviewer: %v", err)
	}
	if updated.EvaluationCount != n {
		t.Errorf("Expected evaluation count %d, got %d", n, updated.EvaluationCount)
	}
	want := sum / float64(n)
	if math.Abs(updated.Average()-want) > 1e-9 {
		t.Errorf("Expected average %v, got %v", want, updated.Average())
	}
}

func TestReviewExchangeEndToEnd(t *testing.T) {
	f := newFixture()
	requester := f.addUser(t, "u", models.RoleRequester)
	reviewer := f.addUser(t, "r", models.RoleReviewer, "JAVA")

	request, err := f.reviewSvc.Create(context.Background(), requester.ID, CreateRequestInput{
		Title:      "Review my service layer",
		Content:    "Transactions feel off.",
		Language:   "JAVA",
		ReviewerID: reviewer.ID,
	})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	answer, err := f.answerSvc.Submit(context.Background(), request.ID, reviewer.ID, "Wrap both writes in one transaction.")
	if err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}

	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, requester.ID, 4.5); err != nil {
		t.Fatalf("Failed to evaluate answer: %v", err)
	}

	updated, err := f.store.GetByID(context.Background(), reviewer.ID)
	if err != nil {
		t.Fatalf("Failed to load reviewer: %v", err)
	}
	if updated.EvaluationCount != 1 {
		t.Errorf("Expected evaluation count 1, got %d", updated.EvaluationCount)
	}
	if updated.Average() != 4.5 {
		t.Errorf("Expected average 4.5, got %v", updated.Average())
	}

	if err := f.answerSvc.Evaluate(context.Background(), request.ID, answer.ID, requester.ID, 4.5); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("Expected conflict error on repeat evaluation, got %v", err)
	}
}
