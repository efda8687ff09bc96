package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"storefront/internal/domain"
	sessionrepo "storefront/internal/repository/session"
)

type tokenMeta struct {
	UserID    string
	ExpiresAt time.Time
}

type tokenManager struct {
	repo sessionrepo.Repository
}

func newTokenManager(repo sessionrepo.Repository) *tokenManager {
	return &tokenManager{repo: repo}
}

func (m *tokenManager) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	expiresAt := time.Now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, sessionrepo.Record{
			Token:     token,
			UserID:    userID,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

func (m *tokenManager) Validate(ctx context.Context, token string) (tokenMeta, bool) {
	if token == "" {
		return tokenMeta{}, false
	}
	rec, err := m.repo.Get(ctx, token)
	if err != nil {
		return tokenMeta{}, false
	}
	if time.Now().After(rec.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return tokenMeta{}, false
	}
	return tokenMeta{UserID: rec.UserID, ExpiresAt: rec.ExpiresAt}, true
}

func (m *tokenManager) Revoke(ctx context.Context, token string) error {
	return m.repo.Delete(ctx, token)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
