package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/weathercraft/weathercraft/internal/domain"
)

// AccountsRepository handles account persistence in SQLite.
type AccountsRepository struct {
	db *sql.DB
}

// NewAccountsRepository creates a new accounts repository.
func NewAccountsRepository(db *sql.DB) *AccountsRepository {
	return &AccountsRepository{db: db}
}

const accountColumns = `id, minecraft_uuid, username, avatar_url,
	verification_code, verification_expires_at, verified, created_at`

func scanAccount(row *sql.Row) (*domain.Account, error) {
	acct := &domain.Account{}
	var code sql.NullString
	var expires sql.NullTime
	err := row.Scan(
		&acct.ID, &acct.MinecraftUUID, &acct.Username, &acct.AvatarURL,
		&code, &expires, &acct.Verified, &acct.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if code.Valid {
		acct.VerificationCode = &code.String
	}
	if expires.Valid {
		t := expires.Time
		acct.VerificationExpiresAt = &t
	}
	return acct, nil
}

// GetByID retrieves an account by internal ID.
func (r *AccountsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByMinecraftUUID retrieves an account by its canonical player UUID.
func (r *AccountsRepository) GetByMinecraftUUID(ctx context.Context, mcUUID string) (*domain.Account, error) {
	return getByMinecraftUUID(ctx, r.db, mcUUID)
}

func getByMinecraftUUID(ctx context.Context, q Querier, mcUUID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE minecraft_uuid = ?`
	return scanAccount(q.QueryRowContext(ctx, query, mcUUID))
}

// GetByActiveCode retrieves the account holding an outstanding verification
// code. Returns domain.ErrCodeNotFound if no account holds the code.
func (r *AccountsRepository) GetByActiveCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE verification_code = ?`
	acct, err := scanAccount(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrCodeNotFound
	}
	return acct, err
}

// errAccountExists signals that a concurrent insert won the minecraft_uuid
// constraint race; the caller re-reads and updates instead.
var errAccountExists = errors.New("account already exists")

// Upsert writes a fresh verification attempt in one transaction: unseen
// players get the candidate row, known players have their stored account
// overwritten with the candidate's username, code and expiry, verified reset.
// Two first-time issuances racing on the same player serialize through the
// unique minecraft_uuid constraint; the loser retries and lands on the update
// path. Returns domain.ErrCodeCollision if another account holds the code.
func (r *AccountsRepository) Upsert(ctx context.Context, candidate *domain.Account) (*domain.Account, error) {
	for attempt := 0; attempt < 2; attempt++ {
		acct, err := r.tryUpsert(ctx, candidate)
		if errors.Is(err, errAccountExists) {
			continue
		}
		return acct, err
	}
	// Won the race twice and lost the row both times; the account must have
	// been deleted between attempts.
	return nil, domain.ErrAccountNotFound
}

func (r *AccountsRepository) tryUpsert(ctx context.Context, candidate *domain.Account) (*domain.Account, error) {
	var out *domain.Account
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := getByMinecraftUUID(ctx, tx, candidate.MinecraftUUID)
		if errors.Is(err, domain.ErrAccountNotFound) {
			out = candidate
			return insertAccount(ctx, tx, candidate)
		}
		if err != nil {
			return err
		}

		query := `
			UPDATE accounts
			SET username = ?, verification_code = ?, verification_expires_at = ?, verified = 0
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			candidate.Username, candidate.VerificationCode, candidate.VerificationExpiresAt, existing.ID,
		)
		if err != nil {
			return mapUniqueCodeError(err)
		}

		existing.Username = candidate.Username
		existing.VerificationCode = candidate.VerificationCode
		existing.VerificationExpiresAt = candidate.VerificationExpiresAt
		existing.Verified = false
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertAccount(ctx context.Context, q Querier, acct *domain.Account) error {
	query := `
		INSERT INTO accounts (id, minecraft_uuid, username, avatar_url,
			verification_code, verification_expires_at, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		acct.ID, acct.MinecraftUUID, acct.Username, acct.AvatarURL,
		acct.VerificationCode, acct.VerificationExpiresAt, acct.Verified, acct.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "accounts.minecraft_uuid") {
		return errAccountExists
	}
	return mapUniqueCodeError(err)
}

// ConsumeCode atomically clears the code and marks the account verified, but
// only if the code is still outstanding. The conditional update serializes
// concurrent redemption attempts: at most one caller observes a matched row,
// every other one gets domain.ErrCodeNotFound.
func (r *AccountsRepository) ConsumeCode(ctx context.Context, id uuid.UUID, code string) error {
	query := `
		UPDATE accounts
		SET verified = 1, verification_code = NULL
		WHERE id = ? AND verification_code = ?
	`
	result, err := r.db.ExecContext(ctx, query, id, code)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

// mapUniqueCodeError translates a unique-index violation on the active code
// column into the domain error so the issuer can retry with a fresh code.
func mapUniqueCodeError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "idx_accounts_active_code") ||
		strings.Contains(err.Error(), "accounts.verification_code") {
		return domain.ErrCodeCollision
	}
	return err
}
