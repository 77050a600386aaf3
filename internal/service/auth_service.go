package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	now        Clock
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		now:        SystemClock,
	}
}

// Session is an issued access token for a user.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Email    string
	FullName string
	Password string
	Role     domain.Role
}

// Register creates a client account and signs it in.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	user, err := s.CreateUser(ctx, CreateUserInput{
		Email:    email,
		FullName: fullName,
		Password: password,
		Role:     domain.RoleClient,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser stores an account of any role with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	problems := map[string]any{}
	if email == "" || !strings.Contains(email, "@") {
		problems["email"] = "must be a valid email address"
	}
	if fullName == "" {
		problems["full_name"] = "required"
	}
	if len(input.Password) < 8 {
		problems["password"] = "must be at least 8 characters"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid account", problems)
	}
	if !input.Role.Valid() {
		return nil, enumError(&domain.EnumError{Field: "role", Value: string(input.Role), Allowed: []string{
			string(domain.RoleClient), string(domain.RoleConsultant), string(domain.RoleAdmin),
		}})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         input.Role,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, storeError("user", err)
	}
	return user, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated("invalid email or password")
		}
		return nil, storeError("user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid email or password")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(*user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
