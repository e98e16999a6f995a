package auth

import (
	"errors"
	"testing"

	"github.com/rupaykg/exchange/internal/user"
)

func testUser() *user.User {
	return &user.User{
		ID:       "user-1",
		Name:     "Asha",
		Role:     user.RoleCitizen,
		District: "Nalanda",
		State:    "Bihar",
	}
}

// TestGenerateValidate_RoundTrip tests token issuance and claim recovery.
func TestGenerateValidate_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != user.RoleCitizen {
		t.Errorf("expected role citizen, got %q", claims.Role)
	}
	if claims.District != "Nalanda" {
		t.Errorf("expected district claim, got %q", claims.District)
	}
}

// TestValidateToken_WrongSecret tests signature rejection.
func TestValidateToken_WrongSecret(t *testing.T) {
	svc := NewJWTService("secret-a")
	token, _ := svc.GenerateToken(testUser())

	other := NewJWTService("secret-b")
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

// TestValidateToken_Rotation tests that tokens signed with the previous
// secret still validate during rotation.
func TestValidateToken_Rotation(t *testing.T) {
	oldSvc := NewJWTService("old-secret")
	token, _ := oldSvc.GenerateToken(testUser())

	rotated := NewJWTServiceWithRotation("new-secret", "old-secret")
	claims, err := rotated.ValidateToken(token)
	if err != nil {
		t.Fatalf("rotation validation failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.Subject)
	}

	// Without the previous secret the old token is rejected.
	noRotation := NewJWTService("new-secret")
	if _, err := noRotation.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

// TestGenerateToken_EmptyUser tests input validation.
func TestGenerateToken_EmptyUser(t *testing.T) {
	svc := NewJWTService("secret")
	if _, err := svc.GenerateToken(&user.User{}); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
	if _, err := svc.GenerateToken(nil); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
}

// TestValidateToken_Garbage tests rejection of malformed tokens.
func TestValidateToken_Garbage(t *testing.T) {
	svc := NewJWTService("secret")
	if _, err := svc.ValidateToken("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
