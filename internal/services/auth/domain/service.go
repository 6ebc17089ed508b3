// Package domain implements the account lifecycle state machine: signup,
// activation, login, password reset and rotation, and profile updates.
package domain

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	apperrors "github.com/linkedfishers/backend/internal/platform/errors"
	"github.com/linkedfishers/backend/internal/platform/id"
	"github.com/linkedfishers/backend/internal/services/auth/mailer"
	"github.com/linkedfishers/backend/internal/services/auth/slug"
	"github.com/linkedfishers/backend/internal/services/auth/storage"
	"github.com/linkedfishers/backend/internal/services/auth/token"
)

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("account store is not configured")
	// ErrSignerNotConfigured indicates the service is missing session signing wiring.
	ErrSignerNotConfigured = errors.New("session signer is not configured")
)

// ResetTokenTTL is the validity window of a password reset token.
const ResetTokenTTL = 24 * time.Hour

const slugSuffixLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account is the sanitized account projection. It never carries the password
// hash or any single-use token.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	Slug        string
	Avatar      string
	Role        string
	Locale      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session pairs a signed session token with the account it represents.
type Session struct {
	Token     string
	ExpiresIn int64
	Account   Account
}

// SignupInput describes one account registration request.
type SignupInput struct {
	Email       string
	DisplayName string
	Password    string
	Locale      string
}

// LoginInput describes one credential check request.
type LoginInput struct {
	Email    string
	Password string
}

// ResetPasswordInput redeems a reset token for a new password.
type ResetPasswordInput struct {
	ResetToken  string
	NewPassword string
}

// ChangePasswordInput rotates a password for an authenticated account.
type ChangePasswordInput struct {
	AccountID   string
	OldPassword string
	NewPassword string
}

// UpdateProfileInput describes one profile mutation request. CallerID is the
// authenticated identity; AccountID is the profile being changed.
type UpdateProfileInput struct {
	CallerID    string
	AccountID   string
	Email       string
	DisplayName string
	Avatar      string
	Locale      string
}

// Service orchestrates account lifecycle use-cases.
type Service struct {
	store    storage.AccountStore
	signer   *token.Signer
	mail     mailer.Mailer
	clock    func() time.Time
	newID    func() (string, error)
	newToken func() (string, error)
	hash     func(password string) (string, error)
	compare  func(passwordHash, password string) error
}

// NewService constructs account lifecycle use-cases.
func NewService(store storage.AccountStore, signer *token.Signer, mail mailer.Mailer, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		signer:   signer,
		mail:     mail,
		clock:    clock,
		newID:    newID,
		newToken: token.NewSingleUse,
		hash: func(password string) (string, error) {
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return "", err
			}
			return string(hashed), nil
		},
		compare: func(passwordHash, password string) error {
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
		},
	}
}

// Signup registers a new inactive account and dispatches the activation
// mail. The account stays persisted even when mail dispatch fails.
func (s *Service) Signup(ctx context.Context, input SignupInput) (Account, error) {
	if s == nil || s.store == nil {
		return Account{}, ErrStoreNotConfigured
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(email) {
		return Account{}, apperrors.New(apperrors.CodeAccountInvalidEmail, "email is malformed")
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return Account{}, apperrors.New(apperrors.CodeAccountEmptyDisplayName, "display name is required")
	}
	if input.Password == "" {
		return Account{}, apperrors.New(apperrors.CodeAuthEmptyPassword, "password is required")
	}

	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return Account{}, apperrors.New(apperrors.CodeAccountEmailTaken, "email is already registered")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Account{}, apperrors.FromStore(err)
	}

	handle, err := s.availableSlug(ctx, displayName)
	if err != nil {
		return Account{}, err
	}

	passwordHash, err := s.hash(input.Password)
	if err != nil {
		return Account{}, err
	}
	accountID, err := s.newID()
	if err != nil {
		return Account{}, err
	}
	confirmationToken, err := s.newToken()
	if err != nil {
		return Account{}, err
	}

	now := s.nowUTC()
	record := storage.Account{
		ID:                accountID,
		Email:             email,
		DisplayName:       displayName,
		Slug:              handle,
		PasswordHash:      passwordHash,
		Role:              "user",
		Locale:            normalizeLocale(input.Locale),
		Active:            false,
		ConfirmationToken: confirmationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.PutAccount(ctx, record); err != nil {
		return Account{}, mapStorageError(err)
	}

	account := sanitize(record)
	if s.mail != nil {
		if err := s.mail.SendActivation(ctx, email, displayName, confirmationToken); err != nil {
			log.Printf("activation mail for %s failed: %v", email, err)
			return account, apperrors.Wrap(apperrors.CodeMailNotSent, "dispatch activation mail", err)
		}
	}
	return account, nil
}

// VerifyActivationToken redeems a single-use confirmation token, activating
// the account and opening a session. A second redemption fails TOKEN_INVALID.
func (s *Service) VerifyActivationToken(ctx context.Context, confirmationToken string) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	confirmationToken = strings.TrimSpace(confirmationToken)
	if confirmationToken == "" {
		return Session{}, apperrors.New(apperrors.CodeTokenInvalid, "confirmation token is required")
	}

	record, err := s.store.RedeemConfirmationToken(ctx, confirmationToken, s.nowUTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperrors.New(apperrors.CodeTokenInvalid, "confirmation token is not redeemable")
		}
		return Session{}, apperrors.FromStore(err)
	}
	return s.openSession(record)
}

// Login checks credentials against an activated account and opens a session.
func (s *Service) Login(ctx context.Context, input LoginInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return Session{}, apperrors.New(apperrors.CodeAccountInvalidEmail, "email is required")
	}
	if input.Password == "" {
		return Session{}, apperrors.New(apperrors.CodeAuthEmptyPassword, "password is required")
	}

	record, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperrors.New(apperrors.CodeAccountNotFound, "no account for email")
		}
		return Session{}, apperrors.FromStore(err)
	}
	if err := s.compare(record.PasswordHash, input.Password); err != nil {
		return Session{}, apperrors.New(apperrors.CodeAuthWrongPassword, "password does not match")
	}
	if !record.Active {
		return Session{}, apperrors.New(apperrors.CodeAccountNotActivated, "account is not activated")
	}
	return s.openSession(record)
}

// Logout resolves the account closing its session. Session tokens are
// stateless, so logout is a lookup that lets the boundary clear its cookie.
func (s *Service) Logout(ctx context.Context, accountID string) (Account, error) {
	if s == nil || s.store == nil {
		return Account{}, ErrStoreNotConfigured
	}
	record, err := s.lookup(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	return sanitize(record), nil
}

// RequestPasswordReset issues a fresh 24h reset token, replacing any prior
// token, and dispatches the reset mail.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.New(apperrors.CodeAccountInvalidEmail, "email is required")
	}

	record, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeAccountNotFound, "no account for email")
		}
		return apperrors.FromStore(err)
	}

	resetToken, err := s.newToken()
	if err != nil {
		return err
	}
	now := s.nowUTC()
	if err := s.store.SetResetToken(ctx, record.ID, resetToken, now.Add(ResetTokenTTL), now); err != nil {
		return mapStorageError(err)
	}

	if s.mail != nil {
		if err := s.mail.SendPasswordReset(ctx, record.Email, record.DisplayName, resetToken); err != nil {
			log.Printf("password reset mail for %s failed: %v", record.Email, err)
			return apperrors.Wrap(apperrors.CodeMailNotSent, "dispatch password reset mail", err)
		}
	}
	return nil
}

// VerifyResetToken checks a reset token without consuming it.
func (s *Service) VerifyResetToken(ctx context.Context, resetToken string) (Account, error) {
	if s == nil || s.store == nil {
		return Account{}, ErrStoreNotConfigured
	}
	record, err := s.liveResetAccount(ctx, resetToken)
	if err != nil {
		return Account{}, err
	}
	return sanitize(record), nil
}

// ResetPassword redeems a reset token: it swaps the password hash, clears
// the token, and opens a fresh session.
func (s *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	if input.NewPassword == "" {
		return Session{}, apperrors.New(apperrors.CodeAuthEmptyPassword, "new password is required")
	}
	if _, err := s.liveResetAccount(ctx, input.ResetToken); err != nil {
		return Session{}, err
	}

	passwordHash, err := s.hash(input.NewPassword)
	if err != nil {
		return Session{}, err
	}
	record, err := s.store.RedeemResetToken(ctx, strings.TrimSpace(input.ResetToken), passwordHash, s.nowUTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperrors.New(apperrors.CodeTokenInvalid, "reset token is not redeemable")
		}
		return Session{}, apperrors.FromStore(err)
	}
	return s.openSession(record)
}

// ChangePassword rotates the password for an authenticated account and
// reissues the session.
func (s *Service) ChangePassword(ctx context.Context, input ChangePasswordInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	if input.OldPassword == "" || input.NewPassword == "" {
		return Session{}, apperrors.New(apperrors.CodeAuthEmptyPassword, "old and new passwords are required")
	}
	record, err := s.lookup(ctx, input.AccountID)
	if err != nil {
		return Session{}, err
	}
	if err := s.compare(record.PasswordHash, input.OldPassword); err != nil {
		return Session{}, apperrors.New(apperrors.CodeAuthWrongPassword, "old password does not match")
	}

	passwordHash, err := s.hash(input.NewPassword)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdatePassword(ctx, record.ID, passwordHash, s.nowUTC()); err != nil {
		return Session{}, mapStorageError(err)
	}
	return s.openSession(record)
}

// UpdateProfile mutates profile fields for the caller's own account and
// reissues the session with the fresh identity snapshot.
func (s *Service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	callerID := strings.TrimSpace(input.CallerID)
	accountID := strings.TrimSpace(input.AccountID)
	if callerID == "" || accountID == "" || callerID != accountID {
		return Session{}, apperrors.New(apperrors.CodeAuthUnauthorized, "profile does not belong to caller")
	}

	record, err := s.lookup(ctx, accountID)
	if err != nil {
		return Session{}, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		email = record.Email
	} else if !emailPattern.MatchString(email) {
		return Session{}, apperrors.New(apperrors.CodeAccountInvalidEmail, "email is malformed")
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = record.DisplayName
	}

	handle := record.Slug
	if displayName != record.DisplayName {
		handle, err = s.availableSlug(ctx, displayName)
		if err != nil {
			return Session{}, err
		}
	}
	locale := record.Locale
	if strings.TrimSpace(input.Locale) != "" {
		locale = normalizeLocale(input.Locale)
	}
	avatar := record.Avatar
	if strings.TrimSpace(input.Avatar) != "" {
		avatar = strings.TrimSpace(input.Avatar)
	}

	record.Email = email
	record.DisplayName = displayName
	record.Slug = handle
	record.Avatar = avatar
	record.Locale = locale
	record.UpdatedAt = s.nowUTC()
	if err := s.store.UpdateProfile(ctx, record); err != nil {
		return Session{}, mapStorageError(err)
	}
	return s.openSession(record)
}

// FindBySlugOrID resolves a public profile by slug, falling back to id.
func (s *Service) FindBySlugOrID(ctx context.Context, slugOrID string) (Account, error) {
	if s == nil || s.store == nil {
		return Account{}, ErrStoreNotConfigured
	}
	slugOrID = strings.TrimSpace(slugOrID)
	if slugOrID == "" {
		return Account{}, apperrors.New(apperrors.CodeAccountNotFound, "profile reference is required")
	}

	record, err := s.store.GetAccountBySlug(ctx, slugOrID)
	if err == nil {
		return sanitize(record), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return Account{}, apperrors.FromStore(err)
	}
	byID, err := s.lookup(ctx, slugOrID)
	if err != nil {
		return Account{}, err
	}
	return sanitize(byID), nil
}

func (s *Service) lookup(ctx context.Context, accountID string) (storage.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.Account{}, apperrors.New(apperrors.CodeAccountNotFound, "account id is required")
	}
	record, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Account{}, apperrors.New(apperrors.CodeAccountNotFound, "account not found")
		}
		return storage.Account{}, apperrors.FromStore(err)
	}
	return record, nil
}

// liveResetAccount loads the account holding the reset token and checks the
// token's validity window.
func (s *Service) liveResetAccount(ctx context.Context, resetToken string) (storage.Account, error) {
	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return storage.Account{}, apperrors.New(apperrors.CodeTokenInvalid, "reset token is required")
	}
	record, err := s.store.GetAccountByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Account{}, apperrors.New(apperrors.CodeTokenInvalid, "reset token is not live")
		}
		return storage.Account{}, apperrors.FromStore(err)
	}
	if record.ResetTokenExpires == nil || record.ResetTokenExpires.Before(s.nowUTC()) {
		return storage.Account{}, apperrors.New(apperrors.CodeTokenExpired, "reset token is expired")
	}
	return record, nil
}

func (s *Service) availableSlug(ctx context.Context, displayName string) (string, error) {
	derived := slug.Derive(displayName)
	if derived == "" {
		return "", apperrors.New(apperrors.CodeAccountEmptyDisplayName, "display name yields no handle")
	}

	if _, err := s.store.GetAccountBySlug(ctx, derived); errors.Is(err, storage.ErrNotFound) {
		return derived, nil
	} else if err != nil {
		return "", apperrors.FromStore(err)
	}

	suffix, err := s.newID()
	if err != nil {
		return "", err
	}
	if len(suffix) > slugSuffixLength {
		suffix = suffix[:slugSuffixLength]
	}
	return slug.WithSuffix(derived, suffix), nil
}

func (s *Service) openSession(record storage.Account) (Session, error) {
	if s.signer == nil {
		return Session{}, ErrSignerNotConfigured
	}
	signed, expiresIn, err := s.signer.Issue(token.Claims{
		AccountID:   record.ID,
		DisplayName: record.DisplayName,
		Avatar:      record.Avatar,
		Role:        record.Role,
		Locale:      record.Locale,
		Slug:        record.Slug,
	})
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     signed,
		ExpiresIn: expiresIn,
		Account:   sanitize(record),
	}, nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func sanitize(record storage.Account) Account {
	return Account{
		ID:          record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		Slug:        record.Slug,
		Avatar:      record.Avatar,
		Role:        record.Role,
		Locale:      record.Locale,
		Active:      record.Active,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrEmailTaken):
		return apperrors.New(apperrors.CodeAccountEmailTaken, "email is already registered")
	case errors.Is(err, storage.ErrSlugTaken):
		return apperrors.New(apperrors.CodeAccountSlugTaken, "slug is already claimed")
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.New(apperrors.CodeAccountNotFound, "account not found")
	default:
		return apperrors.FromStore(err)
	}
}

func normalizeLocale(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "en"
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
