package handler

import (
	"errors"
	"net/http"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    service.AuthService
	accessTokenTTL int64 // seconds, echoed back in token responses
}

func NewAuthHandler(authService service.AuthService, accessTokenTTL int64) *AuthHandler {
	return &AuthHandler{authService: authService, accessTokenTTL: accessTokenTTL}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/refresh", h.RefreshToken)
	rg.POST("/revoke", h.RevokeToken)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Username, req.Password, req.Email)
	if errors.Is(err, service.ErrNameInUse) || errors.Is(err, service.ErrEmailInUse) {
		// Deliberately vague so the endpoint cannot be used to enumerate accounts.
		c.JSON(http.StatusConflict, gin.H{"error": "account creation failed"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account creation failed"})
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterResponse{
		Username:   user.Username,
		FriendCode: user.FriendCode,
		Message:    "account created",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, refreshToken, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		FriendCode:   user.FriendCode,
		ExpiresIn:    h.accessTokenTTL,
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newAccessToken, newRefreshToken, err := h.authService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
		"token_type":    "Bearer",
		"expires_in":    h.accessTokenTTL,
	})
}

func (h *AuthHandler) RevokeToken(c *gin.Context) {
	var req dto.RefreshTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.RevokeToken(req.RefreshToken); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
