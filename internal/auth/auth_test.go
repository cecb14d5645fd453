package auth

import (
	"testing"
	"time"

	"review-hub/internal/config"
	"review-hub/internal/models"
)

func testService(expiration time.Duration) *Service {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: expiration,
	}
	return NewService(cfg)
}

func TestHashPassword(t *testing.T) {
	svc := testService(24 * time.Hour)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	if hash == password {
		t.Error("Hash should not equal the original password")
	}
}

func TestVerifyPassword(t *testing.T) {
	svc := testService(24 * time.Hour)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	// Test correct password
	err = svc.VerifyPassword(hash, password)
	if err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}

	// Test incorrect password
	err = svc.VerifyPassword(hash, "wrongpassword")
	if err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestGenerateToken(t *testing.T) {
	svc := testService(24 * time.Hour)

	user := &models.User{ID: 1, Username: "alice", Role: models.RoleRequester}

	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if token == "" {
		t.Error("Token should not be empty")
	}
}

func TestValidateToken(t *testing.T) {
	svc := testService(24 * time.Hour)

	user := &models.User{ID: 7, Username: "bob", Role: models.RoleReviewer}

	// Generate a token
	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	// Validate the token
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("Expected user ID %d, got %d", user.ID, claims.UserID)
	}

	if claims.Username != user.Username {
		t.Errorf("Expected username %s, got %s", user.Username, claims.Username)
	}

	if claims.Role != models.RoleReviewer {
		t.Errorf("Expected role %s, got %s", models.RoleReviewer, claims.Role)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := testService(-1 * time.Hour) // Already expired

	user := &models.User{ID: 1, Username: "alice", Role: models.RoleRequester}

	// Generate an expired token
	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	// Try to validate the expired token
	_, err = svc.ValidateToken(token)
	if err == nil {
		t.Error("Should reject expired token")
	}
}

func TestValidateTokenFromOtherService(t *testing.T) {
	token, err := testService(24 * time.Hour).GenerateToken(&models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	// A service with a different key pair must reject it
	if _, err := testService(24 * time.Hour).ValidateToken(token); err == nil {
		t.Error("Should reject token signed with a different key")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token1, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate random token: %v", err)
	}

	if token1 == "" {
		t.Error("Token should not be empty")
	}

	token2, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate second random token: %v", err)
	}

	if token1 == token2 {
		t.Error("Random tokens should differ")
	}
}
