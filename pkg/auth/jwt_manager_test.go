package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/models"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	userID := uuid.NewString()

	token, err := m.Generate(userID, models.RoleAlly)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != userID {
		t.Errorf("subject = %s, want %s", claims.Subject, userID)
	}
	if claims.Role != models.RoleAlly {
		t.Errorf("role = %s, want ally", claims.Role)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).Generate(uuid.NewString(), models.RoleClient)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewJWTManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	token, err := m.Generate(uuid.NewString(), models.RoleClient)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expired token was accepted")
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate(uuid.NewString(), models.Role("superuser"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Fatal("token with an unknown role claim was accepted")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := ExtractTokenFromHeader(req)
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("got (%q, %v), want (abc.def.ghi, nil)", token, err)
	}

	req.Header.Set("Authorization", "Basic dXNlcg==")
	if _, err := ExtractTokenFromHeader(req); err == nil {
		t.Fatal("non-bearer header was accepted")
	}

	req.Header.Del("Authorization")
	if _, err := ExtractTokenFromHeader(req); err == nil {
		t.Fatal("missing header was accepted")
	}
}
