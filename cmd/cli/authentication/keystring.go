package authentication

// Credentials live in the OS keyring, never on disk in plain text.

import (
	"encoding/json"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "dareduel-cli"
	tokenKey    = "auth_tokens"
)

type StoredCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Expired reports whether the access token is past (or within a minute
// of) its expiry, so callers refresh before the server rejects them.
func (c *StoredCredentials) Expired() bool {
	return time.Now().Unix() >= c.ExpiresAt-60
}

func StoreTokens(creds *StoredCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, tokenKey, string(data))
}

func GetTokens() (*StoredCredentials, error) {
	value, err := keyring.Get(serviceName, tokenKey)
	if err != nil {
		return nil, err
	}

	var creds StoredCredentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func DeleteTokens() error {
	return keyring.Delete(serviceName, tokenKey)
}
