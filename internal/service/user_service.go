package service

import (
	"context"

	"gcxportal/internal/models"
	"gcxportal/internal/repository"
	"gcxportal/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles authentication and password management.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Authenticate verifies credentials by username or email. The same error is
// returned for unknown accounts and bad passwords.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.userRepo.GetByEmail(ctx, login)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetByID loads one account.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ChangePassword rotates a user's password after verifying the current one,
// and clears the must-change flag set on approval-generated accounts.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	user.Password = string(hashed)
	user.MustChangePassword = false
	return s.userRepo.Update(ctx, user)
}
