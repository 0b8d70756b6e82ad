package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt cost for new password hashes.
var passwordHashCost = bcrypt.DefaultCost

// UserService handles registration, login and staff management.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// SuperuserInput describes a superuser created from the command line.
type SuperuserInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenService) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokens}
}

// Register creates an active, non-staff user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Password1 != in.Password2 {
		return nil, models.NewValidationError("Passwords do not match")
	}
	return s.createUser(ctx, in.Username, in.Email, in.Password1, func(*models.User) {})
}

// CreateSuperuser creates an active staff superuser.
func (s *UserService) CreateSuperuser(ctx context.Context, in SuperuserInput) (*models.User, error) {
	return s.createUser(ctx, strings.TrimSpace(in.Username), strings.TrimSpace(in.Email), in.Password, func(u *models.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})
}

func (s *UserService) createUser(ctx context.Context, username, email, password string, mutate func(*models.User)) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password, validation.UserAttributes(username, email)...); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.taken(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	mutate(user)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) taken(ctx context.Context, username, email string) (bool, error) {
	byName, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil || byName != nil {
		return byName != nil, err
	}
	byEmail, err := s.userRepo.GetByEmail(ctx, email)
	return byEmail != nil, err
}

// Login checks credentials and issues an access/refresh token pair.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	invalid := models.NewUnauthorizedError("Invalid credentials")

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if errors.Is(err, auth.ErrTokenExpired) {
		return "", models.NewUnauthorizedError("Refresh token has expired")
	}
	if err != nil {
		return "", models.NewUnauthorizedError("Invalid refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", notFoundAs(err, "User does not exist")
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return access, nil
}

// SetStaff grants or revokes staff status by username.
func (s *UserService) SetStaff(ctx context.Context, username string, staff bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User does not exist")
	}

	user.IsStaff = staff
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListStaff(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListStaff(ctx)
}
