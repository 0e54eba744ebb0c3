package service

import (
	"errors"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"

	gonanoid "github.com/matoous/go-nanoid"
	"gorm.io/gorm"
)

const (
	friendCodeAlphabet = "0123456789"
	friendCodeLength   = 16
	friendCodeRetries  = 5
)

var ErrFriendCodeNotFound = errors.New("friend code not found")

// FriendCodeService issues and resolves the 16-digit codes users share to
// find each other without exposing usernames or emails.
type FriendCodeService interface {
	Generate() (string, error)
	Validate(code string) bool
	Lookup(code string) (*models.User, error)
}

type friendCodeService struct {
	userRepo repository.UserRepository
}

func NewFriendCodeService(userRepo repository.UserRepository) FriendCodeService {
	return &friendCodeService{userRepo: userRepo}
}

// Generate returns a code no existing user holds. Collisions on a 16-digit
// space are vanishingly rare but checked anyway.
func (s *friendCodeService) Generate() (string, error) {
	for i := 0; i < friendCodeRetries; i++ {
		code, err := gonanoid.Generate(friendCodeAlphabet, friendCodeLength)
		if err != nil {
			return "", err
		}
		_, err = s.userRepo.FindByFriendCode(code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// a user already holds this code, roll again
	}
	return "", errors.New("could not generate a unique friend code")
}

func (s *friendCodeService) Validate(code string) bool {
	if len(code) != friendCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *friendCodeService) Lookup(code string) (*models.User, error) {
	if !s.Validate(code) {
		return nil, ErrFriendCodeNotFound
	}
	user, err := s.userRepo.FindByFriendCode(code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFriendCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
