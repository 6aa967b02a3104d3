// Package service holds the AlphaBase business logic: accounts, email
// notification settings and alert delivery. Persistence is delegated to
// repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by the services. Handlers map them to HTTP statuses.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a user with the given login exists.
	UserExists(ctx context.Context, login string) (bool, error)
	// EmailTaken returns true if an account already uses email.
	EmailTaken(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new account.
	CreateUser(ctx context.Context, u models.User) error
	// GetUser loads an account by login.
	GetUser(ctx context.Context, login string) (*models.User, error)
}

// TokenIssuer signs access tokens for a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	repo   AuthRepository
	tokens TokenIssuer
	now    func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo AuthRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, now: time.Now}
}

// Register creates an account and returns a token for it, so the caller is
// signed in right away.
func (s *AuthService) Register(ctx context.Context, req models.Registration) (models.Token, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" {
		return models.Token{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if len(req.Password) > maxPasswordBytes {
		return models.Token{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	if !ValidEmail(req.Email) {
		return models.Token{}, ErrInvalidEmail
	}

	exists, err := s.repo.UserExists(ctx, req.Username)
	if err != nil {
		return models.Token{}, err
	}
	if exists {
		return models.Token{}, ErrUsernameTaken
	}
	taken, err := s.repo.EmailTaken(ctx, req.Email)
	if err != nil {
		return models.Token{}, err
	}
	if taken {
		return models.Token{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Token{}, fmt.Errorf("hash password: %w", err)
	}

	err = s.repo.CreateUser(ctx, models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateLogin):
		return models.Token{}, ErrUsernameTaken
	case errors.Is(err, repository.ErrDuplicateEmail):
		return models.Token{}, ErrEmailTaken
	case err != nil:
		return models.Token{}, err
	}

	return s.issue(req.Username)
}

// Login checks the credentials and returns a token. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req models.Credentials) (models.Token, error) {
	u, err := s.repo.GetUser(ctx, req.Username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
		return models.Token{}, ErrInvalidCredentials
	}
	return s.issue(u.Username)
}

// Me returns the account of the signed-in user.
func (s *AuthService) Me(ctx context.Context, login string) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, login)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *AuthService) issue(username string) (models.Token, error) {
	tok, err := s.tokens.Issue(username)
	if err != nil {
		return models.Token{}, fmt.Errorf("issue token: %w", err)
	}
	return models.Token{AccessToken: tok, TokenType: "bearer"}, nil
}

// ValidEmail reports whether s is a bare address such as name@example.com.
func ValidEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
