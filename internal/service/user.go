package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/color"
	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/id"
	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"
	"github.com/rutapp/rut-server/internal/validation"
)

// UserService handles accounts: signup, signin and profiles.
type UserService struct {
	store     store.Store
	tokens    *auth.TokenService
	hasher    *auth.Hasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, tokens *auth.TokenService, hasher *auth.Hasher, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

// SignupRequest creates an account.
type SignupRequest struct {
	UName    string `json:"uname" validate:"required,uname"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=256"`
}

// SigninRequest exchanges credentials for a token.
type SigninRequest struct {
	UName    string `json:"uname" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate patches a user's profile. Nil fields are left unchanged.
type ProfileUpdate struct {
	Email  *string `json:"email,omitempty" validate:"omitempty,email,max=256"`
	Avatar *string `json:"avatar,omitempty" validate:"omitempty,weburl,max=256"`
	Intro  *string `json:"intro,omitempty" validate:"omitempty,max=512"`
}

// AuthResponse carries a fresh access token.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"` // seconds
}

// Signup creates a user and signs them in.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.UName = normalize.Text(req.UName)
	req.Email = normalize.Text(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}

	now := clock()
	user := &domain.User{
		ID:           id.New(),
		UName:        req.UName,
		PasswordHash: hash,
		Email:        req.Email,
		JoinAt:       now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("uname is taken").WithDetails(map[string]string{"uname": req.UName})
		}
		return nil, storeErr(err, "user")
	}

	s.logger.Info("user signed up", "user_id", user.ID, "uname", user.UName)
	return s.issue(user)
}

// Signin verifies credentials and returns a token.
// Unknown users and wrong passwords fail identically.
func (s *UserService) Signin(ctx context.Context, req SigninRequest) (*AuthResponse, error) {
	req.UName = normalize.Text(req.UName)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUName(ctx, req.UName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidCredentials("invalid uname or password")
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.logger.Info("signin rejected", "uname", req.UName)
		return nil, domainerrors.InvalidCredentials("invalid uname or password")
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	return s.issue(user)
}

// rehash upgrades a stored hash to the current cost. Failure only costs the upgrade.
func (s *UserService) rehash(ctx context.Context, user *domain.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	user.UpdatedAt = clock()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("password rehash not saved", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info("password rehashed", "user_id", user.ID)
}

func (s *UserService) issue(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "issue token")
	}
	return &AuthResponse{
		User:        present(user),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTokenDuration() / time.Second),
	}, nil
}

// CheckUName reports whether uname is free to sign up with.
func (s *UserService) CheckUName(ctx context.Context, uname string) (bool, error) {
	uname = normalize.Text(uname)
	if err := s.validator.Var("uname", uname, "required,uname"); err != nil {
		return false, err
	}

	_, err := s.store.GetUserByUName(ctx, uname)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return true, nil
	case err != nil:
		return false, storeErr(err, "user")
	default:
		return false, nil
	}
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return present(user), nil
}

// UpdateProfile patches the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, p domain.Principal, upd ProfileUpdate) (*domain.User, error) {
	if err := s.validator.Validate(upd); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, storeErr(err, "user")
	}

	if upd.Email != nil {
		user.Email = normalize.Text(*upd.Email)
	}
	if upd.Avatar != nil {
		user.Avatar = normalize.Text(*upd.Avatar)
	}
	if upd.Intro != nil {
		user.Intro = normalize.Text(*upd.Intro)
	}
	user.UpdatedAt = clock()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, storeErr(err, "user")
	}

	s.logger.Info("profile updated", "user_id", user.ID)
	return present(user), nil
}

// present fills the derived fields of a user leaving the service.
func present(user *domain.User) *domain.User {
	user.Color = color.ForUName(user.UName)
	return user
}
