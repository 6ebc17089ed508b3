// Package token issues and verifies session tokens and mints single-use
// account tokens for activation and password-reset flows.
package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/platform/id"
)

// DefaultTTL is the session validity window when none is configured.
const DefaultTTL = 60 * time.Hour

// Claims carries the identity snapshot embedded in a session token.
type Claims struct {
	AccountID   string
	DisplayName string
	Avatar      string
	Role        string
	Locale      string
	Slug        string
}

// sessionClaims is the internal claims type used for JWT encoding.
type sessionClaims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Role        string `json:"role,omitempty"`
	Locale      string `json:"locale,omitempty"`
	Slug        string `json:"slug,omitempty"`
}

// signerEnv holds raw env values before post-parse validation.
type signerEnv struct {
	Issuer     string `env:"LINKEDFISHERS_SESSION_ISSUER" envDefault:"linkedfishers"`
	Audience   string `env:"LINKEDFISHERS_SESSION_AUDIENCE" envDefault:"linkedfishers-api"`
	PrivateKey string `env:"LINKEDFISHERS_SESSION_PRIVATE_KEY"`
	TTLSeconds int    `env:"LINKEDFISHERS_SESSION_TTL_SECONDS"`
}

// Signer issues and verifies ed25519-signed session tokens.
type Signer struct {
	issuer   string
	audience string
	key      ed25519.PrivateKey
	ttl      time.Duration
	now      func() time.Time
}

// NewSigner constructs a session signer. A zero ttl falls back to DefaultTTL;
// a nil now falls back to time.Now.
func NewSigner(issuer, audience string, key ed25519.PrivateKey, ttl time.Duration, now func() time.Time) (*Signer, error) {
	issuer = strings.TrimSpace(issuer)
	audience = strings.TrimSpace(audience)
	if issuer == "" {
		return nil, fmt.Errorf("session issuer is required")
	}
	if audience == "" {
		return nil, fmt.Errorf("session audience is required")
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("session private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{
		issuer:   issuer,
		audience: audience,
		key:      key,
		ttl:      ttl,
		now:      now,
	}, nil
}

// NewSignerFromEnv reads session signing configuration from the environment.
// When no private key is configured an ephemeral key pair is generated, which
// invalidates outstanding sessions on restart.
func NewSignerFromEnv(now func() time.Time) (*Signer, error) {
	var raw signerEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse session env: %w", err)
	}

	var key ed25519.PrivateKey
	if encoded := strings.TrimSpace(raw.PrivateKey); encoded != "" {
		keyBytes, err := decodeBase64(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode session private key: %w", err)
		}
		if len(keyBytes) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("session private key must be %d bytes", ed25519.PrivateKeySize)
		}
		key = ed25519.PrivateKey(keyBytes)
	} else {
		_, generated, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		key = generated
	}

	ttl := time.Duration(raw.TTLSeconds) * time.Second
	return NewSigner(raw.Issuer, raw.Audience, key, ttl, now)
}

// TTL returns the configured session validity window.
func (s *Signer) TTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.ttl
}

// Issue signs a session token for the given claims and returns the token
// together with its validity window in seconds.
func (s *Signer) Issue(claims Claims) (string, int64, error) {
	if s == nil || len(s.key) != ed25519.PrivateKeySize {
		return "", 0, fmt.Errorf("session signer is not configured")
	}
	accountID := strings.TrimSpace(claims.AccountID)
	if accountID == "" {
		return "", 0, fmt.Errorf("account id is required")
	}

	now := s.now().UTC()
	payload := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		DisplayName: strings.TrimSpace(claims.DisplayName),
		Avatar:      strings.TrimSpace(claims.Avatar),
		Role:        strings.TrimSpace(claims.Role),
		Locale:      strings.TrimSpace(claims.Locale),
		Slug:        strings.TrimSpace(claims.Slug),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, payload).SignedString(s.key)
	if err != nil {
		return "", 0, fmt.Errorf("sign session token: %w", err)
	}
	return signed, int64(s.ttl / time.Second), nil
}

// Verify parses a session token and returns its claims. Expired tokens fail
// with TOKEN_EXPIRED; every other parse failure maps to TOKEN_INVALID.
func (s *Signer) Verify(token string) (Claims, error) {
	if s == nil || len(s.key) != ed25519.PrivateKeySize {
		return Claims{}, fmt.Errorf("session signer is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "session token is required")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return s.key.Public(), nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "session subject is required")
	}

	return Claims{
		AccountID:   parsed.Subject,
		DisplayName: parsed.DisplayName,
		Avatar:      parsed.Avatar,
		Role:        parsed.Role,
		Locale:      parsed.Locale,
		Slug:        parsed.Slug,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.New(apperrors.CodeTokenExpired, "session token is expired")
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeTokenInvalid, "session token signature is invalid")
	}
	return apperrors.New(apperrors.CodeTokenInvalid, "session token is invalid")
}

// NewSingleUse mints an unguessable single-use token from three independent
// random sources. Used for account activation and password-reset links.
func NewSingleUse() (string, error) {
	first, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("single-use token id source: %w", err)
	}
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("single-use token random source: %w", err)
	}
	return first + hex.EncodeToString(randomBytes) + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

func decodeBase64(value string) ([]byte, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
