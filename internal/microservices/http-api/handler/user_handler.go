package handler

import (
	"errors"
	"net/http"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	friendCodes service.FriendCodeService
}

func NewUserHandler(userService service.UserService, friendCodes service.FriendCodeService) *UserHandler {
	return &UserHandler{userService: userService, friendCodes: friendCodes}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
	rg.PUT("/me", h.UpdateProfile)
	rg.POST("/me/friend-code", h.RegenerateFriendCode)
	rg.GET("/by-code/:code", h.LookupFriendCode)
}

// currentUserID pulls the authenticated user out of the gin context. The
// auth middleware guarantees it is set on protected routes.
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return userID.(string), true
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.Profile(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateDisplayName(userID, req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) RegenerateFriendCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	code, err := h.userService.RegenerateFriendCode(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friend_code": code})
}

// LookupFriendCode resolves a shared code to the public slice of its owner.
func (h *UserHandler) LookupFriendCode(c *gin.Context) {
	user, err := h.friendCodes.Lookup(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrFriendCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "friend code not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.UserSummary{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}
