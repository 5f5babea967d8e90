package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string     `json:"token"`
	Role  model.Role `json:"role"`
	Name  string     `json:"name"`
}

// UserService handles registration, login and profile management.
type UserService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
	media    *MediaService
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, auth *AuthService, media *MediaService, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		media:    media,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates a student or teacher account. Admins are created from the CLI only.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if role != model.RoleStudent && role != model.RoleTeacher {
		return nil, ErrRoleNotAllowed
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Msg("User registered")
	return u, nil
}

// Login checks credentials and issues a token.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Role: u.Role, Name: u.FullName}, nil
}

// Profile returns the user's own account.
func (s *UserService) Profile(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfile changes name and/or email. Empty fields keep their value.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req *model.UpdateProfileRequest) (*model.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != "" {
		u.FullName = req.FullName
	}
	if req.Email != "" {
		u.Email = req.Email
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, u.FullName, u.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.Profile(ctx, userID)
}

// SetProfilePicture stores a new avatar and removes the previous file.
func (s *UserService) SetProfilePicture(ctx context.Context, userID int, file io.Reader, header *multipart.FileHeader) (*model.User, error) {
	url, err := s.media.SaveAvatar(file, header)
	if err != nil {
		return nil, err
	}

	previous, err := s.userRepo.SetProfilePic(ctx, userID, &url)
	if err != nil {
		_ = s.media.Remove(url)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set profile picture: %w", err)
	}
	s.removeFile(previous)

	return s.Profile(ctx, userID)
}

// RemoveProfilePicture clears the avatar.
func (s *UserService) RemoveProfilePicture(ctx context.Context, userID int) (*model.User, error) {
	previous, err := s.userRepo.SetProfilePic(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("remove profile picture: %w", err)
	}
	s.removeFile(previous)

	return s.Profile(ctx, userID)
}

// List returns a page of users for the admin console.
func (s *UserService) List(ctx context.Context, f model.UserFilter) ([]model.User, int, error) {
	return s.userRepo.List(ctx, f)
}

func (s *UserService) removeFile(url *string) {
	if url == nil {
		return
	}
	if err := s.media.Remove(*url); err != nil {
		s.log.Warn().Err(err).Str("file", *url).Msg("Failed to remove old profile picture")
	}
}
