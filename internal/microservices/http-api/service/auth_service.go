package service

import (
	"errors"
	"time"

	"dareduel/internal/config"
	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
	"dareduel/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNameInUse          = errors.New("username already in use")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)

// Claims is the authenticated identity carried by an access token.
type Claims struct {
	UserID   string
	Username string
	Role     string
}

type AuthService interface {
	Register(username, password, email string) (*models.User, error)
	Login(username, password string) (accessToken, refreshToken string, user *models.User, err error)
	RefreshAccessToken(refreshToken string) (newAccessToken, newRefreshToken string, err error)
	RevokeToken(refreshToken string) error
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	friendCodes      FriendCodeService
	jwtSecret        string
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	friendCodes FriendCodeService,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		friendCodes:      friendCodes,
		jwtSecret:        cfg.JWTSecret,
		accessTokenTTL:   cfg.AccessTokenTTL,
		refreshTokenTTL:  cfg.RefreshTokenTTL,
	}
}

// Register: registers a new user and assigns a fresh friend code.
func (s *authService) Register(username, password, email string) (*models.User, error) {
	// Check if user exists
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrNameInUse
	}
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailInUse
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	code, err := s.friendCodes.Generate()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          uuid.New().String(),
		Username:    username,
		Email:       email,
		Password:    hashedPassword,
		DisplayName: username,
		FriendCode:  code,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login: authenticates a user and returns access and refresh tokens upon successful login.
func (s *authService) Login(username, password string) (string, string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		// User not found: dummy compare to mitigate timing attacks (always take same time)
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return "", "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", nil, err
	}
	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return "", "", nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, user, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.accessTokenTTL).Unix(),
		"iat":      time.Now().Unix(),
		"type":     "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) generateRefreshToken(user *models.User) (string, error) {
	refreshToken := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(), // Simple UUID as refresh token
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}

	if err := s.refreshTokenRepo.Create(refreshToken); err != nil {
		return "", err
	}
	return refreshToken.Token, nil
}

// RefreshAccessToken rotates both tokens: the presented refresh token is
// revoked and a fresh pair is issued.
func (s *authService) RefreshAccessToken(refreshTokenString string) (string, string, error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(refreshTokenString)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	if refreshToken.Revoked {
		return "", "", ErrInvalidToken
	}
	if time.Now().After(refreshToken.ExpiresAt) {
		s.refreshTokenRepo.Delete(refreshToken.ID)
		return "", "", ErrExpiredToken
	}

	user, err := s.userRepo.FindByID(refreshToken.UserID)
	if err != nil {
		return "", "", err
	}

	newAccessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return "", "", err
	}
	if err := s.refreshTokenRepo.Revoke(refreshToken.ID); err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

func (s *authService) RevokeToken(refreshTokenString string) error {
	refreshToken, err := s.refreshTokenRepo.FindByToken(refreshTokenString)
	if err != nil {
		return ErrInvalidToken
	}
	return s.refreshTokenRepo.Revoke(refreshToken.ID)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := mapClaims["user_id"].(string)
	username, _ := mapClaims["username"].(string)
	role, _ := mapClaims["role"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{UserID: userID, Username: username, Role: role}, nil
}
