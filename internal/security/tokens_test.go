package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidateSession(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sessionID, userID, email := "s1", "u1", "rider@example.com"

	token, exp, err := p.IssueSession(sessionID, userID, email, time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if token == "" {
		t.Fatal("session token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	sid, uid, em, err := p.ValidateSession(token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if sid != sessionID || uid != userID || em != email {
		t.Errorf("ValidateSession: got sessionID=%q userID=%q email=%q", sid, uid, em)
	}
}

func TestTokenProvider_ValidateSessionInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, _, _, err := p.ValidateSession("invalid-token"); err != ErrInvalidToken {
		t.Errorf("ValidateSession invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_SessionTTLRespected(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := p.IssueSession("s1", "u1", "rider@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, _, _, err := p.ValidateSession(token); err == nil {
		t.Fatal("expired session token should not validate")
	}
}

func TestTokenProvider_IssueAndValidateReset(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, exp, err := p.IssueReset("u1", "rider@example.com")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	if token == "" || exp.Before(time.Now()) {
		t.Fatal("reset token empty or already expired")
	}

	uid, email, err := p.ValidateReset(token)
	if err != nil {
		t.Fatalf("ValidateReset: %v", err)
	}
	if uid != "u1" || email != "rider@example.com" {
		t.Errorf("ValidateReset: got userID=%q email=%q", uid, email)
	}
}

func TestTokenProvider_ResetTokenNotValidAsSession(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	reset, _, err := p.IssueReset("u1", "rider@example.com")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	// A session token must never validate as a reset token and vice versa.
	if _, _, err := p.ValidateReset(mustSession(t, p)); err == nil {
		t.Error("session token validated as reset token")
	}
	if sid, _, _, err := p.ValidateSession(reset); err == nil && sid != "" {
		t.Error("reset token validated as session token with a session id")
	}
}

func mustSession(t *testing.T, p *TokenProvider) string {
	t.Helper()
	token, _, err := p.IssueSession("s1", "u1", "rider@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	return token
}
