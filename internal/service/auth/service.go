package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	sessionrepo "storefront/internal/repository/session"
	userrepo "storefront/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles signup/login and session lookup.
type Service struct {
	users       userrepo.Repository
	tokens      *tokenManager
	sessionTTL  time.Duration
	passwordMin int
}

func New(users userrepo.Repository, sessions sessionrepo.Repository) *Service {
	return &Service{
		users:       users,
		tokens:      newTokenManager(sessions),
		sessionTTL:  48 * time.Hour,
		passwordMin: 8,
	}
}

type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Signup registers a new user with the default USER role.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if len(password) < s.passwordMin {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, s.passwordMin)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	})
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CurrentSession resolves a bearer token into the caller's identity and
// role, or domain.ErrUnauthorized for a missing/expired token.
func (s *Service) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, meta.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return &domain.Session{
		UserID:    u.ID,
		Role:      u.Role,
		ExpiresAt: meta.ExpiresAt,
	}, nil
}

// Logout revokes a session token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
