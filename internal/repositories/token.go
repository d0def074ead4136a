package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stacks/internal/shared"
)

// TokenKey is the settings key holding the auth token.
const TokenKey = "auth_token"

// TokenRepository stores the single auth token.
type TokenRepository struct {
	settings *SettingsRepository
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{settings: NewSettingsRepository(db)}
}

// Get returns the stored token, or [shared.ErrTokenNotFound].
func (r *TokenRepository) Get() (string, error) {
	s, err := r.settings.Get(TokenKey)
	if errors.Is(err, shared.ErrItemNotFound) {
		return "", shared.ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// SavedAt returns when the token was stored.
func (r *TokenRepository) SavedAt() (time.Time, error) {
	s, err := r.settings.Get(TokenKey)
	if errors.Is(err, shared.ErrItemNotFound) {
		return time.Time{}, shared.ErrTokenNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return s.UpdatedAt, nil
}

// Set replaces the stored token.
func (r *TokenRepository) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidArgument)
	}
	return r.settings.Set(TokenKey, token)
}

// Delete forgets the token.
func (r *TokenRepository) Delete() error {
	return r.settings.Delete(TokenKey)
}
