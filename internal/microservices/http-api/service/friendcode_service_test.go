package service

import (
	"testing"

	"dareduel/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestFriendCodeGenerate(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewFriendCodeService(userRepo)

	userRepo.On("FindByFriendCode", mock.AnythingOfType("string")).Return(nil, gorm.ErrRecordNotFound)

	code, err := svc.Generate()

	assert.NoError(t, err)
	assert.Len(t, code, 16)
	assert.True(t, svc.Validate(code))
}

func TestFriendCodeGenerateRetriesOnCollision(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewFriendCodeService(userRepo)

	// first roll collides with an existing user, second one is free
	taken := &models.User{ID: "bob", FriendCode: "1234567890123456"}
	userRepo.On("FindByFriendCode", mock.AnythingOfType("string")).Return(taken, nil).Once()
	userRepo.On("FindByFriendCode", mock.AnythingOfType("string")).Return(nil, gorm.ErrRecordNotFound).Once()

	code, err := svc.Generate()

	assert.NoError(t, err)
	assert.Len(t, code, 16)
	userRepo.AssertNumberOfCalls(t, "FindByFriendCode", 2)
}

func TestFriendCodeGeneratePropagatesRepoError(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewFriendCodeService(userRepo)

	// a failing lookup must not be mistaken for a free code
	userRepo.On("FindByFriendCode", mock.AnythingOfType("string")).Return(nil, assert.AnError)

	code, err := svc.Generate()

	assert.Empty(t, code)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFriendCodeValidate(t *testing.T) {
	svc := NewFriendCodeService(new(MockUserRepository))

	assert.True(t, svc.Validate("1234567890123456"))
	assert.False(t, svc.Validate("123456789012345"))   // too short
	assert.False(t, svc.Validate("12345678901234567")) // too long
	assert.False(t, svc.Validate("123456789012345a"))  // non-digit
	assert.False(t, svc.Validate(""))
}

func TestFriendCodeLookup(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := NewFriendCodeService(userRepo)

	bob := &models.User{ID: "bob", FriendCode: "1234567890123456"}
	userRepo.On("FindByFriendCode", "1234567890123456").Return(bob, nil)

	found, err := svc.Lookup("1234567890123456")
	assert.NoError(t, err)
	assert.Equal(t, "bob", found.ID)

	// malformed codes never hit the repository
	_, err = svc.Lookup("oops")
	assert.Equal(t, ErrFriendCodeNotFound, err)
}
