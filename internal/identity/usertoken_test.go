package identity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/linkhubhq/linkhub/internal/identity"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("test-secret"), "http://localhost:8080", time.Hour)

	tok, err := issuer.Issue(42, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Subject != "42" {
		t.Errorf("Subject = %q, want 42", claims.Subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := identity.NewTokenIssuer([]byte("secret-a"), "http://localhost:8080", time.Hour)
	b := identity.NewTokenIssuer([]byte("secret-b"), "http://localhost:8080", time.Hour)

	tok, err := a.Issue(1, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(tok); err == nil {
		t.Fatal("token signed with a different secret verified")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	a := identity.NewTokenIssuer([]byte("secret"), "http://a.example", time.Hour)
	b := identity.NewTokenIssuer([]byte("secret"), "http://b.example", time.Hour)

	tok, err := a.Issue(1, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(tok); err == nil {
		t.Fatal("token with mismatched iss verified")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("secret"), "http://localhost:8080", -time.Minute)

	tok, err := issuer.Issue(1, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = issuer.Verify(tok)
	if err == nil {
		t.Fatal("expired token verified")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Logf("expiry error message: %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("secret"), "http://localhost:8080", time.Hour)
	if _, err := issuer.Verify("not.a.jwt"); err == nil {
		t.Fatal("garbage token verified")
	}
}
