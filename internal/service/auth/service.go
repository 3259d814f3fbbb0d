package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// TokenPair holds the access and refresh tokens issued together after a
// successful registration, login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service orchestrates registration, login and token refresh.
type Service struct {
	userStore  store.UserStore
	jwtService JWTService
	hasher     PasswordHasher
	verifier   PasswordVerifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates an authentication service.
// If logger is nil, a default logger will be used.
func NewService(
	userStore store.UserStore,
	jwtService JWTService,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	logger *slog.Logger,
) *Service {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	if verifier == nil {
		panic("verifier cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		userStore:  userStore,
		jwtService: jwtService,
		hasher:     hasher,
		verifier:   verifier,
		logger:     logger.With(slog.String("component", "auth_service")),
		now:        time.Now,
	}
}

// Register creates a new active student account and issues a token pair.
// Returns store.ErrEmailExists if the email is already registered.
func (s *Service) Register(
	ctx context.Context,
	name, email, password string,
) (*domain.User, *TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		return nil, nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, tokens, nil
}

// Login verifies the credentials and issues a token pair, stamping the user's
// login bookkeeping on success. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
		return nil, nil, ErrInvalidCredentials
	}

	loginTime := s.now().UTC()
	if err := s.userStore.RecordLogin(ctx, user.ID, loginTime); err != nil {
		// Login bookkeeping is best-effort; the credentials already checked out.
		log.Warn("failed to record login",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
	} else {
		user.LastLogin = &loginTime
		user.LoginCount++
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return user, tokens, nil
}

// Refresh validates a refresh token and issues a fresh token pair.
// The user must still exist and be active.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
