package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"review-hub/internal/auth"
	"review-hub/internal/config"
	"review-hub/internal/middleware"
	"review-hub/internal/models"
	"review-hub/internal/service"
	"review-hub/internal/storage/memory"
)

type testEnv struct {
	mux     *http.ServeMux
	store   *memory.Store
	authSvc *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	authSvc := auth.NewService(&config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})

	reviewSvc := service.NewReviewService(store, store.Requests(), store.Comments())
	answerSvc := service.NewAnswerService(store.Requests(), store.Answers())
	reviewerSvc := service.NewReviewerService(store, store.Requests(), store.Answers())
	authBizSvc := service.NewAuthService(store, authSvc)

	authHandler := NewAuthHandler(authBizSvc)
	reviewHandler := NewReviewHandler(reviewSvc)
	answerHandler := NewAnswerHandler(answerSvc)
	reviewerHandler := NewReviewerHandler(reviewerSvc)

	authMw := middleware.NewAuthMiddleware(authSvc)
	requesterOnly := middleware.RequireRole(models.RoleRequester)
	reviewerOnly := middleware.RequireRole(models.RoleReviewer)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/requests", reviewHandler.List)
	mux.HandleFunc("GET /api/v1/requests/languages/{language}", reviewHandler.ListByLanguage)
	mux.HandleFunc("GET /api/v1/requests/{id}", reviewHandler.Get)
	mux.HandleFunc("GET /api/v1/reviewers", reviewerHandler.List)
	mux.Handle("POST /api/v1/requests",
		authMw.Authenticate(requesterOnly(http.HandlerFunc(reviewHandler.Create))))
	mux.Handle("PUT /api/v1/requests/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.Update)))
	mux.Handle("DELETE /api/v1/requests/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.Delete)))
	mux.Handle("POST /api/v1/requests/{id}/comments",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.AddComment)))
	mux.Handle("POST /api/v1/requests/{id}/answers",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(answerHandler.Submit))))
	mux.Handle("PUT /api/v1/answers/{id}",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(answerHandler.Update))))
	mux.Handle("POST /api/v1/requests/{id}/answers/{answerId}/evaluation",
		authMw.Authenticate(requesterOnly(http.HandlerFunc(answerHandler.Evaluate))))
	mux.Handle("PUT /api/v1/requests/{id}/reviewer",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(reviewerHandler.Reassign))))

	return &testEnv{mux: mux, store: store, authSvc: authSvc}
}

func (e *testEnv) addUser(t *testing.T, username string, role models.Role, languages ...string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hash",
		Nickname:     username,
		Role:         role,
		Languages:    languages,
	}
	if err := e.store.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body any, as *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if as != nil {
		token, err := e.authSvc.GenerateToken(as)
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func TestSignupAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/auth/signup", map[string]any{
		"username":  "bob",
		"password":  "password123",
		"nickname":  "Bob",
		"role":      "REVIEWER",
		"languages": []string{"java"},
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, "POST", "/api/v1/auth/login", map[string]any{
		"username": "bob",
		"password": "password123",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if payload["token"] == "" {
		t.Error("Login should return a token")
	}

	rr = env.do(t, "POST", "/api/v1/auth/login", map[string]any{
		"username": "bob",
		"password": "wrong",
	}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad password, got %d", rr.Code)
	}
}

func TestRequestEndpoints(t *testing.T) {
	env := newTestEnv(t)
	requester := env.addUser(t, "alice", models.RoleRequester)
	reviewer := env.addUser(t, "bob", models.RoleReviewer, "JAVA")

	// Anonymous creation is rejected
	rr := env.do(t, "POST", "/api/v1/requests", map[string]any{
		"title": "x", "content": "y", "language": "JAVA", "reviewer_id": reviewer.ID,
	}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for anonymous create, got %d", rr.Code)
	}

	// Reviewers may not open requests
	rr = env.do(t, "POST", "/api/v1/requests", map[string]any{
		"title": "x", "content": "y", "language": "JAVA", "reviewer_id": reviewer.ID,
	}, reviewer)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for reviewer create, got %d", rr.Code)
	}

	rr = env.do(t, "POST", "/api/v1/requests", map[string]any{
		"title": "Review my parser", "content": "It parses.", "language": "JAVA", "reviewer_id": reviewer.ID,
	}, requester)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created models.ReviewRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode request: %v", err)
	}

	// Anonymous read is open
	rr = env.do(t, "GET", "/api/v1/requests/1", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for anonymous read, got %d", rr.Code)
	}

	rr = env.do(t, "GET", "/api/v1/requests", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for listing, got %d", rr.Code)
	}
	var page struct {
		TotalElements int `json:"total_elements"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.TotalElements != 1 {
		t.Errorf("Expected 1 request, got %d", page.TotalElements)
	}

	rr = env.do(t, "GET", "/api/v1/requests/languages/JAVA", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for language listing, got %d", rr.Code)
	}

	// Only the requester may edit
	rr = env.do(t, "PUT", "/api/v1/requests/1", map[string]any{
		"title": "Hijack", "content": "Hijack",
	}, reviewer)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for reviewer edit, got %d", rr.Code)
	}

	rr = env.do(t, "GET", "/api/v1/requests/999", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown request, got %d", rr.Code)
	}
}

func TestAnswerAndEvaluationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	requester := env.addUser(t, "alice", models.RoleRequester)
	reviewer := env.addUser(t, "bob", models.RoleReviewer, "JAVA")

	rr := env.do(t, "POST", "/api/v1/requests", map[string]any{
		"title": "Review my parser", "content": "It parses.", "language": "JAVA", "reviewer_id": reviewer.ID,
	}, requester)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, "POST", "/api/v1/requests/1/answers", map[string]any{"content": "Use a stack."}, reviewer)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for answer, got %d: %s", rr.Code, rr.Body.String())
	}

	// Double answer conflicts
	rr = env.do(t, "POST", "/api/v1/requests/1/answers", map[string]any{"content": "Again."}, reviewer)
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for second answer, got %d", rr.Code)
	}

	// Out-of-range point
	rr = env.do(t, "POST", "/api/v1/requests/1/answers/1/evaluation", map[string]any{"point": 9.0}, requester)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for out-of-range point, got %d", rr.Code)
	}

	rr = env.do(t, "POST", "/api/v1/requests/1/answers/1/evaluation", map[string]any{"point": 4.5}, requester)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for evaluation, got %d: %s", rr.Code, rr.Body.String())
	}

	// Evaluation is one-time
	rr = env.do(t, "POST", "/api/v1/requests/1/answers/1/evaluation", map[string]any{"point": 4.5}, requester)
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for repeat evaluation, got %d", rr.Code)
	}

	// Frozen answer rejects edits
	rr = env.do(t, "PUT", "/api/v1/answers/1", map[string]any{"content": "Too late."}, reviewer)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 for post-evaluation edit, got %d", rr.Code)
	}

	// The reviewer directory shows the new rating
	rr = env.do(t, "GET", "/api/v1/reviewers?language=JAVA", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for reviewer listing, got %d", rr.Code)
	}
	var page struct {
		Data []models.ReviewerSummary `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Average != 4.5 {
		t.Errorf("Expected reviewer average 4.5, got %+v", page.Data)
	}
}

func TestReassignEndpoint(t *testing.T) {
	env := newTestEnv(t)
	requester := env.addUser(t, "alice", models.RoleRequester)
	reviewer := env.addUser(t, "bob", models.RoleReviewer, "JAVA")
	successor := env.addUser(t, "carol", models.RoleReviewer, "JAVA")

	rr := env.do(t, "POST", "/api/v1/requests", map[string]any{
		"title": "Review my parser", "content": "It parses.", "language": "JAVA", "reviewer_id": reviewer.ID,
	}, requester)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	// The requester holds the wrong role for the handoff route
	rr = env.do(t, "PUT", "/api/v1/requests/1/reviewer", map[string]any{"new_reviewer_id": successor.ID}, requester)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for requester handoff, got %d", rr.Code)
	}

	// A bystander reviewer is role-allowed but not the assignee
	rr = env.do(t, "PUT", "/api/v1/requests/1/reviewer", map[string]any{"new_reviewer_id": reviewer.ID}, successor)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-assigned reviewer, got %d", rr.Code)
	}

	rr = env.do(t, "PUT", "/api/v1/requests/1/reviewer", map[string]any{"new_reviewer_id": successor.ID}, reviewer)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for handoff, got %d: %s", rr.Code, rr.Body.String())
	}

	// Only the new reviewer may answer now
	rr = env.do(t, "POST", "/api/v1/requests/1/answers", map[string]any{"content": "Mine?"}, reviewer)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for the old reviewer, got %d", rr.Code)
	}
	rr = env.do(t, "POST", "/api/v1/requests/1/answers", map[string]any{"content": "Got it."}, successor)
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201 for the new reviewer, got %d: %s", rr.Code, rr.Body.String())
	}
}
