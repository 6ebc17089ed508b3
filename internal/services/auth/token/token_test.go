package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
)

func newTestSigner(t *testing.T, now func() time.Time) *Signer {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := NewSigner("linkedfishers", "linkedfishers-api", key, DefaultTTL, now)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, func() time.Time { return issued })

	claims := Claims{
		AccountID:   "acct-1",
		DisplayName: "Alice Fisher",
		Avatar:      "https://cdn.example/avatar.png",
		Role:        "user",
		Locale:      "en",
		Slug:        "alice-fisher",
	}
	signed, expiresIn, err := signer.Issue(claims)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if expiresIn != int64(DefaultTTL/time.Second) {
		t.Fatalf("expected expiresIn %d, got %d", int64(DefaultTTL/time.Second), expiresIn)
	}

	got, err := signer.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != claims {
		t.Fatalf("claims mismatch: got %+v, want %+v", got, claims)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, func() time.Time { return now })

	signed, _, err := signer.Issue(Claims{AccountID: "acct-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(DefaultTTL + time.Minute)
	_, err = signer.Verify(signed)
	if apperrors.CodeOf(err) != apperrors.CodeTokenExpired {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	issuer := newTestSigner(t, now)
	verifier := newTestSigner(t, now)

	signed, _, err := issuer.Issue(Claims{AccountID: "acct-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = verifier.Verify(signed)
	if apperrors.CodeOf(err) != apperrors.CodeTokenInvalid {
		t.Fatalf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	signer := newTestSigner(t, nil)
	for _, value := range []string{"", "   ", "not-a-token"} {
		_, err := signer.Verify(value)
		if apperrors.CodeOf(err) != apperrors.CodeTokenInvalid {
			t.Fatalf("Verify(%q): expected TOKEN_INVALID, got %v", value, err)
		}
	}
}

func TestIssueRequiresAccountID(t *testing.T) {
	signer := newTestSigner(t, nil)
	if _, _, err := signer.Issue(Claims{}); err == nil {
		t.Fatal("expected error for empty account id")
	}
}

func TestNewSingleUseTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		value, err := NewSingleUse()
		if err != nil {
			t.Fatalf("new single-use token: %v", err)
		}
		if len(value) < 90 {
			t.Fatalf("expected long token, got %d characters", len(value))
		}
		if strings.ContainsAny(value, " \t\n/") {
			t.Fatalf("token contains unsafe characters: %q", value)
		}
		if seen[value] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[value] = true
	}
}

func TestNewSignerValidation(t *testing.T) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	if _, err := NewSigner("", "aud", key, 0, nil); err == nil {
		t.Fatal("expected error for empty issuer")
	}
	if _, err := NewSigner("iss", "", key, 0, nil); err == nil {
		t.Fatal("expected error for empty audience")
	}
	if _, err := NewSigner("iss", "aud", key[:10], 0, nil); err == nil {
		t.Fatal("expected error for short key")
	}

	signer, err := NewSigner("iss", "aud", key, 0, nil)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if signer.TTL() != DefaultTTL {
		t.Fatalf("expected default ttl %v, got %v", DefaultTTL, signer.TTL())
	}
}

func TestVerifyNilSigner(t *testing.T) {
	var signer *Signer
	if _, err := signer.Verify("anything"); err == nil || errors.Is(err, nil) {
		t.Fatal("expected configuration error from nil signer")
	}
}
