// Package sqlite provides SQLite-backed persistence for account state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/linkedfishers/backend/internal/platform/storage/sqlitemigrate"
	"github.com/linkedfishers/backend/internal/services/auth/storage"
	"github.com/linkedfishers/backend/internal/services/auth/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for account lifecycle state.
type Store struct {
	sqlDB *sql.DB
}

// New wires account storage onto the shared database and applies its
// migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("run account migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

const accountColumns = `id, email, display_name, slug, password_hash, avatar, role, locale, active, confirmation_token, reset_token, reset_token_expires, created_at, updated_at`

// PutAccount inserts one new account row.
func (s *Store) PutAccount(ctx context.Context, account storage.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeAccount(account)
	if err != nil {
		return err
	}

	var resetExpires sql.NullInt64
	if normalized.ResetTokenExpires != nil {
		resetExpires = sql.NullInt64{Int64: toMillis(*normalized.ResetTokenExpires), Valid: true}
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO accounts (`+accountColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		normalized.ID,
		normalized.Email,
		normalized.DisplayName,
		normalized.Slug,
		normalized.PasswordHash,
		normalized.Avatar,
		normalized.Role,
		normalized.Locale,
		boolToInt(normalized.Active),
		normalized.ConfirmationToken,
		normalized.ResetToken,
		resetExpires,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if mapped := mapUniqueConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// GetAccountByID loads one account row by id.
func (s *Store) GetAccountByID(ctx context.Context, accountID string) (storage.Account, error) {
	return s.getAccountBy(ctx, "id = ?", strings.TrimSpace(accountID))
}

// GetAccountByEmail loads one account row by email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (storage.Account, error) {
	return s.getAccountBy(ctx, "email = ?", strings.TrimSpace(email))
}

// GetAccountBySlug loads one account row by slug.
func (s *Store) GetAccountBySlug(ctx context.Context, slug string) (storage.Account, error) {
	return s.getAccountBy(ctx, "slug = ?", strings.TrimSpace(slug))
}

// GetAccountByResetToken loads the account holding a live or expired reset token.
func (s *Store) GetAccountByResetToken(ctx context.Context, resetToken string) (storage.Account, error) {
	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return storage.Account{}, storage.ErrNotFound
	}
	return s.getAccountBy(ctx, "reset_token = ?", resetToken)
}

func (s *Store) getAccountBy(ctx context.Context, predicate string, arg string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Account{}, fmt.Errorf("storage is not configured")
	}
	if arg == "" {
		return storage.Account{}, fmt.Errorf("lookup value is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+accountColumns+`
FROM accounts
WHERE `+predicate, arg)
	account, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Account{}, storage.ErrNotFound
		}
		return storage.Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// RedeemConfirmationToken activates the inactive account holding the token.
func (s *Store) RedeemConfirmationToken(ctx context.Context, confirmationToken string, now time.Time) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Account{}, fmt.Errorf("storage is not configured")
	}
	confirmationToken = strings.TrimSpace(confirmationToken)
	if confirmationToken == "" {
		return storage.Account{}, storage.ErrNotFound
	}

	var accountID string
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id FROM accounts WHERE confirmation_token = ? AND active = 0
`, confirmationToken).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Account{}, storage.ErrNotFound
		}
		return storage.Account{}, fmt.Errorf("lookup confirmation token: %w", err)
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts
SET active = 1, confirmation_token = '', updated_at = ?
WHERE id = ? AND confirmation_token = ? AND active = 0
`, toMillis(now), accountID, confirmationToken)
	if err != nil {
		return storage.Account{}, fmt.Errorf("redeem confirmation token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Account{}, fmt.Errorf("redeem confirmation token rows affected: %w", err)
	}
	if affected == 0 {
		return storage.Account{}, storage.ErrNotFound
	}
	return s.GetAccountByID(ctx, accountID)
}

// SetResetToken overwrites the account's reset token and expiry.
func (s *Store) SetResetToken(ctx context.Context, accountID, resetToken string, expiresAt, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	resetToken = strings.TrimSpace(resetToken)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if resetToken == "" {
		return fmt.Errorf("reset token is required")
	}
	if expiresAt.IsZero() {
		return fmt.Errorf("reset token expiry is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts
SET reset_token = ?, reset_token_expires = ?, updated_at = ?
WHERE id = ?
`, resetToken, toMillis(expiresAt), toMillis(now), accountID)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set reset token rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RedeemResetToken swaps the password hash and clears the reset token.
func (s *Store) RedeemResetToken(ctx context.Context, resetToken, passwordHash string, now time.Time) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Account{}, fmt.Errorf("storage is not configured")
	}
	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return storage.Account{}, storage.ErrNotFound
	}
	if passwordHash == "" {
		return storage.Account{}, fmt.Errorf("password hash is required")
	}

	var accountID string
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id FROM accounts WHERE reset_token = ?
`, resetToken).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Account{}, storage.ErrNotFound
		}
		return storage.Account{}, fmt.Errorf("lookup reset token: %w", err)
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts
SET password_hash = ?, reset_token = '', reset_token_expires = NULL, updated_at = ?
WHERE id = ? AND reset_token = ?
`, passwordHash, toMillis(now), accountID, resetToken)
	if err != nil {
		return storage.Account{}, fmt.Errorf("redeem reset token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Account{}, fmt.Errorf("redeem reset token rows affected: %w", err)
	}
	if affected == 0 {
		return storage.Account{}, storage.ErrNotFound
	}
	return s.GetAccountByID(ctx, accountID)
}

// UpdatePassword replaces the password hash for one account.
func (s *Store) UpdatePassword(ctx context.Context, accountID, passwordHash string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if passwordHash == "" {
		return fmt.Errorf("password hash is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts
SET password_hash = ?, updated_at = ?
WHERE id = ?
`, passwordHash, toMillis(now), accountID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateProfile updates the mutable profile fields for one account.
func (s *Store) UpdateProfile(ctx context.Context, account storage.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	accountID := strings.TrimSpace(account.ID)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts
SET email = ?, display_name = ?, slug = ?, avatar = ?, locale = ?, updated_at = ?
WHERE id = ?
`,
		strings.TrimSpace(account.Email),
		strings.TrimSpace(account.DisplayName),
		strings.TrimSpace(account.Slug),
		strings.TrimSpace(account.Avatar),
		strings.TrimSpace(account.Locale),
		toMillis(account.UpdatedAt),
		accountID,
	)
	if err != nil {
		if mapped := mapUniqueConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner func(dest ...any) error

func scanAccount(scan scanner) (storage.Account, error) {
	var account storage.Account
	var active int
	var resetExpires sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&account.ID,
		&account.Email,
		&account.DisplayName,
		&account.Slug,
		&account.PasswordHash,
		&account.Avatar,
		&account.Role,
		&account.Locale,
		&active,
		&account.ConfirmationToken,
		&account.ResetToken,
		&resetExpires,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Account{}, err
	}
	account.Active = active != 0
	if resetExpires.Valid {
		value := fromMillis(resetExpires.Int64)
		account.ResetTokenExpires = &value
	}
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	return account, nil
}

func normalizeAccount(account storage.Account) (storage.Account, error) {
	account.ID = strings.TrimSpace(account.ID)
	account.Email = strings.TrimSpace(account.Email)
	account.DisplayName = strings.TrimSpace(account.DisplayName)
	account.Slug = strings.TrimSpace(account.Slug)
	account.Avatar = strings.TrimSpace(account.Avatar)
	account.Role = strings.TrimSpace(account.Role)
	account.Locale = strings.TrimSpace(account.Locale)
	account.ConfirmationToken = strings.TrimSpace(account.ConfirmationToken)
	account.ResetToken = strings.TrimSpace(account.ResetToken)
	if account.ID == "" {
		return storage.Account{}, fmt.Errorf("account id is required")
	}
	if account.Email == "" {
		return storage.Account{}, fmt.Errorf("account email is required")
	}
	if account.DisplayName == "" {
		return storage.Account{}, fmt.Errorf("account display name is required")
	}
	if account.Slug == "" {
		return storage.Account{}, fmt.Errorf("account slug is required")
	}
	if account.PasswordHash == "" {
		return storage.Account{}, fmt.Errorf("account password hash is required")
	}
	if account.CreatedAt.IsZero() {
		return storage.Account{}, fmt.Errorf("created_at is required")
	}
	if account.UpdatedAt.IsZero() {
		return storage.Account{}, fmt.Errorf("updated_at is required")
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	if account.ResetTokenExpires != nil {
		expires := account.ResetTokenExpires.UTC()
		account.ResetTokenExpires = &expires
	}
	return account, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func mapUniqueConstraintError(err error) error {
	if err == nil {
		return nil
	}
	value := strings.ToLower(err.Error())
	if !strings.Contains(value, "unique constraint failed") {
		return nil
	}
	if strings.Contains(value, "accounts.email") {
		return storage.ErrEmailTaken
	}
	if strings.Contains(value, "accounts.slug") {
		return storage.ErrSlugTaken
	}
	return err
}
