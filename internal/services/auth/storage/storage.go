// Package storage defines persistence contracts for account state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested account record is missing.
	ErrNotFound = errors.New("account record not found")
	// ErrEmailTaken indicates another account already owns the email.
	ErrEmailTaken = errors.New("account email already taken")
	// ErrSlugTaken indicates another account already owns the slug.
	ErrSlugTaken = errors.New("account slug already taken")
)

// Account stores one persisted account row.
type Account struct {
	ID                string
	Email             string
	DisplayName       string
	Slug              string
	PasswordHash      string
	Avatar            string
	Role              string
	Locale            string
	Active            bool
	ConfirmationToken string
	ResetToken        string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AccountStore persists account lifecycle state.
type AccountStore interface {
	// PutAccount inserts one new account row. Email and slug collisions fail
	// with ErrEmailTaken and ErrSlugTaken.
	PutAccount(ctx context.Context, account Account) error
	GetAccountByID(ctx context.Context, accountID string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	GetAccountBySlug(ctx context.Context, slug string) (Account, error)
	GetAccountByResetToken(ctx context.Context, resetToken string) (Account, error)
	// RedeemConfirmationToken activates the inactive account holding the
	// token and clears the token in one conditional write. ErrNotFound when
	// no inactive account holds the token.
	RedeemConfirmationToken(ctx context.Context, confirmationToken string, now time.Time) (Account, error)
	// SetResetToken overwrites the account's reset token and expiry. At most
	// one reset token is live per account.
	SetResetToken(ctx context.Context, accountID, resetToken string, expiresAt, now time.Time) error
	// RedeemResetToken swaps the password hash and clears the reset token for
	// the account holding the token, in one conditional write. ErrNotFound
	// when no account holds the token.
	RedeemResetToken(ctx context.Context, resetToken, passwordHash string, now time.Time) (Account, error)
	// UpdatePassword replaces the password hash for one account.
	UpdatePassword(ctx context.Context, accountID, passwordHash string, now time.Time) error
	// UpdateProfile updates email, display name, slug, avatar, and locale.
	// Collisions fail with ErrEmailTaken and ErrSlugTaken.
	UpdateProfile(ctx context.Context, account Account) error
}
