package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"

	"github.com/kryptotracker/backend/internal/apperrors"
	"github.com/kryptotracker/backend/internal/model"
)

// credentialTTL bounds how old an encrypted secret may be before fernet
// refuses to decrypt it. Zero would disable the check; credentials live
// for years, so use a generous window.
const credentialTTL = 10 * 365 * 24 * time.Hour

// CredentialRepository provides data access methods for exchange API
// credentials. API secrets are fernet-encrypted before they touch the
// database and decrypted on read.
type CredentialRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewCredentialRepository creates a new CredentialRepository.
// The fernet key must be a base64-encoded 32-byte key.
func NewCredentialRepository(db *sql.DB, fernetKey string) (*CredentialRepository, error) {
	key, err := fernet.DecodeKey(fernetKey)
	if err != nil {
		return nil, fmt.Errorf("invalid fernet key: %w", err)
	}
	return &CredentialRepository{db: db, key: key}, nil
}

// Upsert stores or replaces the user's credential for an exchange.
func (r *CredentialRepository) Upsert(ctx context.Context, cred *model.ExchangeCredential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}

	encrypted, err := fernet.EncryptAndSign([]byte(cred.APISecret), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt API secret: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO exchange_credential (id, user_id, exchange, api_key, api_secret)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, exchange) DO UPDATE SET api_key = excluded.api_key, api_secret = excluded.api_secret`,
		cred.ID, cred.UserID, cred.Exchange, cred.APIKey, string(encrypted),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert exchange credential: %w", err)
	}

	return nil
}

// Get retrieves and decrypts the user's credential for an exchange.
// Returns apperrors.ErrCredentialNotFound if none is configured.
func (r *CredentialRepository) Get(ctx context.Context, userID, exchange string) (model.ExchangeCredential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, exchange, api_key, api_secret
		FROM exchange_credential WHERE user_id = ? AND exchange = ?`,
		userID, exchange)

	var cred model.ExchangeCredential
	var encrypted string
	err := row.Scan(&cred.ID, &cred.UserID, &cred.Exchange, &cred.APIKey, &encrypted)
	if err == sql.ErrNoRows {
		return model.ExchangeCredential{}, apperrors.ErrCredentialNotFound
	}
	if err != nil {
		return model.ExchangeCredential{}, fmt.Errorf("failed to scan exchange_credential table results: %w", err)
	}

	secret := fernet.VerifyAndDecrypt([]byte(encrypted), credentialTTL, []*fernet.Key{r.key})
	if secret == nil {
		return model.ExchangeCredential{}, fmt.Errorf("failed to decrypt API secret for credential %s", cred.ID)
	}
	cred.APISecret = string(secret)

	return cred, nil
}

// ListAll retrieves every stored credential with decrypted secrets.
// Used by the scheduled sync to walk all configured exchange accounts.
func (r *CredentialRepository) ListAll(ctx context.Context) ([]model.ExchangeCredential, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, exchange, api_key, api_secret FROM exchange_credential`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange_credential table: %w", err)
	}
	defer rows.Close()

	credentials := []model.ExchangeCredential{}
	for rows.Next() {
		var cred model.ExchangeCredential
		var encrypted string
		if err := rows.Scan(&cred.ID, &cred.UserID, &cred.Exchange, &cred.APIKey, &encrypted); err != nil {
			return nil, fmt.Errorf("failed to scan exchange_credential table results: %w", err)
		}

		secret := fernet.VerifyAndDecrypt([]byte(encrypted), credentialTTL, []*fernet.Key{r.key})
		if secret == nil {
			return nil, fmt.Errorf("failed to decrypt API secret for credential %s", cred.ID)
		}
		cred.APISecret = string(secret)

		credentials = append(credentials, cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange_credential table: %w", err)
	}

	return credentials, nil
}

// Delete removes the user's credential for an exchange.
func (r *CredentialRepository) Delete(ctx context.Context, userID, exchange string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM exchange_credential WHERE user_id = ? AND exchange = ?`,
		userID, exchange)
	if err != nil {
		return fmt.Errorf("failed to delete exchange credential: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check credential delete: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrCredentialNotFound
	}

	return nil
}
