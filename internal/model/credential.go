package model

import "time"

// ExchangeCredential is a per-user, per-exchange API key pair used by the
// exchange pull path. The secret is stored fernet-encrypted at rest and is
// opaque to the reconciliation core.
type ExchangeCredential struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Exchange  string    `json:"exchange"`
	APIKey    string    `json:"apiKey"`
	APISecret string    `json:"-"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
