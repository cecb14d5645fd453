package service

import (
	"context"
	"testing"
	"time"

	"review-hub/internal/apperrors"
	"review-hub/internal/auth"
	"review-hub/internal/config"
	"review-hub/internal/models"
	"review-hub/internal/storage/memory"
)

func newAuthFixture() (*memory.Store, *AuthService) {
	store := memory.NewStore()
	authSvc := auth.NewService(&config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
	})
	return store, NewAuthService(store, authSvc)
}

func TestSignup(t *testing.T) {
	_, svc := newAuthFixture()

	user, err := svc.Signup(context.Background(), SignupInput{
		Username:  "alice",
		Password:  "password123",
		Nickname:  "Alice",
		Role:      models.RoleReviewer,
		Languages: []string{"java", "Go"},
	})
	if err != nil {
		t.Fatalf("Failed to sign up: %v", err)
	}

	if user.ID == 0 {
		t.Error("User should get an ID")
	}
	if user.PasswordHash == "password123" {
		t.Error("Password must be stored hashed")
	}
	if len(user.Languages) != 2 || user.Languages[0] != "JAVA" || user.Languages[1] != "GO" {
		t.Errorf("Languages should be normalized, got %v", user.Languages)
	}
}

func TestSignupValidation(t *testing.T) {
	_, svc := newAuthFixture()

	cases := []struct {
		name  string
		input SignupInput
	}{
		{"short password", SignupInput{Username: "alice", Password: "short", Nickname: "Alice", Role: models.RoleRequester}},
		{"missing username", SignupInput{Password: "password123", Nickname: "Alice", Role: models.RoleRequester}},
		{"bad role", SignupInput{Username: "alice", Password: "password123", Nickname: "Alice", Role: "ADMIN"}},
		{"reviewer without languages", SignupInput{Username: "alice", Password: "password123", Nickname: "Alice", Role: models.RoleReviewer}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Signup(context.Background(), tc.input); !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	_, svc := newAuthFixture()

	input := SignupInput{Username: "alice", Password: "password123", Nickname: "Alice", Role: models.RoleRequester}
	if _, err := svc.Signup(context.Background(), input); err != nil {
		t.Fatalf("Failed to sign up: %v", err)
	}

	if _, err := svc.Signup(context.Background(), input); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("Expected conflict error for taken username, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	_, svc := newAuthFixture()

	if _, err := svc.Signup(context.Background(), SignupInput{
		Username: "alice",
		Password: "password123",
		Nickname: "Alice",
		Role:     models.RoleRequester,
	}); err != nil {
		t.Fatalf("Failed to sign up: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	if token == "" {
		t.Error("Login should return a token")
	}
	if user.Username != "alice" {
		t.Errorf("Expected user alice, got %s", user.Username)
	}

	if _, _, err := svc.Login(context.Background(), "alice", "wrongpassword"); err != ErrInvalidCredentials {
		t.Errorf("Expected invalid credentials error, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody", "password123"); err != ErrInvalidCredentials {
		t.Errorf("Expected invalid credentials error for unknown user, got %v", err)
	}
}
