package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/99minutos/business-units/internal/core/domain"
	"github.com/99minutos/business-units/internal/core/ports"
)

const (
	defaultPasswordMinLength = 6
	// bcrypt ignores everything past 72 bytes.
	passwordMaxBytes = 72
)

// AuthOptions tunes the registration policy.
type AuthOptions struct {
	PasswordMinLength int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// AuthService implements registration, login and token-backed identity lookup.
type AuthService struct {
	users   ports.UserRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	limiter ports.LoginLimiter
	log     zerolog.Logger

	minPasswordLen int
	now            func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthService wires the auth core. A nil limiter disables login throttling.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	limiter ports.LoginLimiter,
	log zerolog.Logger,
	opts AuthOptions,
) *AuthService {
	if opts.PasswordMinLength <= 0 {
		opts.PasswordMinLength = defaultPasswordMinLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		limiter:        limiter,
		log:            log,
		minPasswordLen: opts.PasswordMinLength,
		now:            opts.Now,
	}
}

// Register creates a user after validating input and checking uniqueness.
// The read-then-write check is advisory; the store's unique index is what
// actually guarantees one user per email.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := s.validateRegistration(email, password); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, domain.Internal("find user by email", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, domain.Internal("create user", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// burnVerify runs one hash comparison against a throwaway digest so that an
// unknown email costs the same as a wrong password.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("business-units-unknown-user")
		if err != nil {
			s.log.Warn().Err(err).Msg("could not build dummy password digest")
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest == "" {
		return
	}
	_, _ = s.hasher.Verify(password, s.dummyDigest)
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "login:"+email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		} else if !allowed {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.burnVerify(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal("find user by email", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, domain.Internal("verify password", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CurrentUser resolves the user a verified token was issued for.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal("find user by id", err)
	}
	return user, nil
}

func (s *AuthService) validateRegistration(email, password string) error {
	if email == "" {
		return domain.NewValidationError("email", "is required")
	}
	if !strings.Contains(email, "@") {
		return domain.NewValidationError("email", "must be a valid email")
	}
	if password == "" {
		return domain.NewValidationError("password", "is required")
	}
	if len([]rune(password)) < s.minPasswordLen {
		return domain.NewValidationError("password", "must be at least "+strconv.Itoa(s.minPasswordLen)+" characters")
	}
	if len(password) > passwordMaxBytes {
		return domain.NewValidationError("password", "must be at most 72 bytes")
	}
	return nil
}
