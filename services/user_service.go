package services

import (
	"errors"
	"fmt"

	"banquito/models"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterUserDTO carries the data for creating a login account
type RegisterUserDTO struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin member external"`
	MemberID *uint  `json:"memberId"`
}

// LoginDTO carries login credentials
type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordDTO carries a password rotation
type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UserService manages login accounts and credential checks
type UserService struct {
	db        *gorm.DB
	validator *validator.Validate
	log       *logrus.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, log *logrus.Logger) *UserService {
	return &UserService{
		db:        db,
		validator: validator.New(),
		log:       log,
	}
}

// Register creates a login account. An optional member link ties the account
// to a registry entry so member-scoped routes can resolve "my" data.
func (s *UserService) Register(dto RegisterUserDTO) (*models.User, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.Where("username = ?", dto.Username).First(&existing).Error; err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	if dto.MemberID != nil {
		var member models.Member
		if err := s.db.First(&member, *dto.MemberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrMemberNotFound
			}
			return nil, fmt.Errorf("loading member: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	role := models.Role(dto.Role)
	if role == "" {
		role = models.RoleMember
	}

	user := &models.User{
		Username: dto.Username,
		Password: string(hash),
		Role:     role,
		MemberID: dto.MemberID,
		IsActive: true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.log.Infof("user %s registered with role %s", user.Username, user.Role)
	return user, nil
}

// Authenticate verifies credentials and returns the account. Disabled
// accounts cannot log in even with the right password.
func (s *UserService) Authenticate(dto LoginDTO) (*models.User, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("username = ?", dto.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return &user, nil
}

// GetUserByID returns an account with its linked member
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Member").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// ChangePassword rotates a user's password after verifying the current one
func (s *UserService) ChangePassword(id uint, dto ChangePasswordDTO) error {
	if err := s.validator.Struct(dto); err != nil {
		return err
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.db.Model(&user).Update("password", string(hash)).Error; err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	s.log.Infof("password changed for user %s", user.Username)
	return nil
}
