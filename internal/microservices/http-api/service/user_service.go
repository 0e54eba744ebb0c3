package service

import (
	"strings"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
)

type UserService interface {
	Profile(userID string) (*models.User, error)
	UpdateDisplayName(userID, displayName string) (*models.User, error)
	// RegenerateFriendCode replaces the user's code, invalidating the old one.
	RegenerateFriendCode(userID string) (string, error)
}

type userService struct {
	userRepo    repository.UserRepository
	friendCodes FriendCodeService
}

func NewUserService(userRepo repository.UserRepository, friendCodes FriendCodeService) UserService {
	return &userService{userRepo: userRepo, friendCodes: friendCodes}
}

func (s *userService) Profile(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateDisplayName(userID, displayName string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	displayName = strings.TrimSpace(displayName)
	if displayName != "" {
		user.DisplayName = displayName
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) RegenerateFriendCode(userID string) (string, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return "", ErrUserNotFound
	}
	code, err := s.friendCodes.Generate()
	if err != nil {
		return "", err
	}
	if err := s.userRepo.SetFriendCode(userID, code); err != nil {
		return "", err
	}
	return code, nil
}
