// Package services contains server-side business logic: account
// registration and login in UserService, the owner-scoped catalog in
// MediaService.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediashelf/internal/common"
	"github.com/dmitrijs2005/mediashelf/internal/logging"
	"github.com/dmitrijs2005/mediashelf/internal/server/auth"
	"github.com/dmitrijs2005/mediashelf/internal/server/config"
	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	"github.com/dmitrijs2005/mediashelf/internal/server/repositories/repomanager"
)

// SignupInput is the registration request.
type SignupInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserService provides authentication-related operations:
// - Signup: create users with a bcrypt password hash
// - Login: verify credentials and mint an access token
// - Profile: look up the caller's account
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	hasher                      *auth.PasswordHasher
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		hasher:                      hasher,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		log:                         log.With("module", "users"),
	}
}

// Signup registers a new account. A taken email or username yields
// common.ErrorAlreadyExists; the unique indexes decide under races.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, validationError(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: email is already registered", common.ErrorAlreadyExists)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{UserName: in.Username, Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username or email is already registered", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and returns a signed access token. An
// unknown email and a wrong password both yield common.ErrInvalidCredentials
// and take the same time.
func (s *UserService) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return "", err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(ctx, in.Password)
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, in.Password)
	if err != nil {
		return "", fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}

// Profile returns the account with the given id.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}
