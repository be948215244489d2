package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/fzokart/internal/domain/auth"
)

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Session is the result of a successful register, login or refresh.
type Session struct {
	User         *User
	Token        string
	RefreshToken string
}

// Service implements account registration, login and token refresh.
type Service struct {
	users    Repository
	tokens   *auth.Tokens
	hashCost int
}

// NewService creates a user Service. hashCost is the bcrypt cost; zero
// selects auth.DefaultCost.
func NewService(users Repository, tokens *auth.Tokens, hashCost int) *Service {
	if hashCost == 0 {
		hashCost = auth.DefaultCost
	}
	return &Service{users: users, tokens: tokens, hashCost: hashCost}
}

// Register creates a USER account and returns it with an access token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	switch _, err := s.users.GetByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, ErrNotFound):
		return nil, errors.Wrap(err, "lookup email")
	}

	hash, err := auth.HashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "create user")
	}

	token, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// Login verifies credentials and returns access and refresh tokens.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "lookup email")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrTokenInvalid
		}
		return nil, errors.Wrap(err, "get user")
	}
	token, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// Profile returns the user by id.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// PromoteAdmin grants the admin role to the account with the given email.
func (s *Service) PromoteAdmin(ctx context.Context, email string) (*User, error) {
	return s.users.SetRole(ctx, normalizeEmail(email), RoleAdmin)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
