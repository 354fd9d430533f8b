package devserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/dmitrijs2005/cinemaclub/internal/devserver/auth"
	"github.com/dmitrijs2005/cinemaclub/internal/devserver/config"
	"github.com/dmitrijs2005/cinemaclub/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput marks a request body the service refuses to act on.
var ErrInvalidInput = errors.New("invalid input")

// UserService handles registration, login, profile and the rotation of
// server-stored refresh tokens.
type UserService struct {
	repo            *Repository
	jwtSecret       []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	bcryptCost      int
	generation      atomic.Int64
}

func NewUserService(repo *Repository, cfg *config.Config) *UserService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:            repo,
		jwtSecret:       []byte(cfg.SecretKey),
		accessValidity:  cfg.AccessTokenValidityDuration,
		refreshValidity: cfg.RefreshTokenValidityDuration,
		bcryptCost:      cost,
	}
}

// registerInput is the server's view of a registration body. The password
// confirmation never leaves the client.
type registerInput struct {
	Email       string  `validate:"required,email"`
	Password    string  `validate:"required,min=8"`
	Username    string  `validate:"required,max=64"`
	DateOfBirth *string `validate:"omitempty,datetime=2006-01-02"`
	Country     *string `validate:"omitempty,max=64"`
}

// Register creates the account and signs it in.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.TokenPair, error) {
	in := registerInput{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		Username:    strings.TrimSpace(req.Username),
		DateOfBirth: req.DateOfBirth,
		Country:     req.Country,
	}
	if err := validation.Validate(in); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	u, err := s.repo.CreateUser(ctx, &userRecord{
		User: models.User{
			Email:       in.Email,
			Username:    in.Username,
			DateOfBirth: req.DateOfBirth,
			Country:     req.Country,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.generateTokenPair(ctx, u.UserID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Login verifies the password and records the login time. Unknown emails and
// wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	rec, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	now := time.Now().UTC()
	u, err := s.repo.UpdateUser(ctx, rec.UserID, func(u *models.User) { u.LastLogin = &now })
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	pair, err := s.generateTokenPair(ctx, u.UserID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// RefreshToken consumes refreshToken and issues a fresh pair. Replaying a
// consumed token fails with common.ErrInvalidToken.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	userID, err := s.repo.TakeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.User(ctx, userID); err != nil {
		return nil, common.ErrInvalidToken
	}
	return s.generateTokenPair(ctx, userID)
}

// Logout revokes refreshToken. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) {
	s.repo.DeleteRefreshToken(ctx, refreshToken)
}

// Authenticate resolves an access token to its user id.
func (s *UserService) Authenticate(accessToken string) (int64, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return 0, err
	}
	if claims.Generation != s.generation.Load() {
		return 0, common.ErrTokenExpired
	}
	return claims.UserID, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.User(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error) {
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	}
	return s.repo.UpdateUser(ctx, userID, func(u *models.User) {
		if req.Username != nil {
			u.Username = *req.Username
		}
		if req.AvatarURL != nil {
			u.AvatarURL = req.AvatarURL
		}
		if req.DateOfBirth != nil {
			u.DateOfBirth = req.DateOfBirth
		}
		if req.Country != nil {
			u.Country = req.Country
		}
	})
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay usable.
func (s *UserService) ExpireAccessTokens() {
	s.generation.Add(1)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64) (*models.TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.generation.Load(), s.jwtSecret, s.accessValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repo.CreateRefreshToken(ctx, userID, refresh, s.refreshValidity); err != nil {
		return nil, common.ErrorInternal
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
