package session

import (
	"context"
	"time"
)

// Record is one stored session token.
type Record struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, token string) (*Record, error)
	Delete(ctx context.Context, token string) error
}
