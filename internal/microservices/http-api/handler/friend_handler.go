package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	friendService service.FriendService
	friendCodes   service.FriendCodeService
}

func NewFriendHandler(friendService service.FriendService, friendCodes service.FriendCodeService) *FriendHandler {
	return &FriendHandler{friendService: friendService, friendCodes: friendCodes}
}

func (h *FriendHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListFriends)
	rg.DELETE("/:user_id", h.RemoveFriend)
	rg.GET("/search", h.Search)
	rg.GET("/suggestions", h.Suggestions)

	rg.POST("/requests", h.SendRequest)
	rg.GET("/requests", h.ListRequests)
	rg.PUT("/requests/:id", h.RespondRequest)

	rg.POST("/blocks", h.Block)
	rg.DELETE("/blocks/:user_id", h.Unblock)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	page, err := h.friendService.ListFriends(ctx, userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.friendService.RemoveFriend(ctx, userID, c.Param("user_id"))
	if errors.Is(err, service.ErrNotFriends) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) Search(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit, offset := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.friendService.Search(ctx, userID, query, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": toSummaries(users), "total": total})
}

func (h *FriendHandler) Suggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	users, err := h.friendService.Suggestions(ctx, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": toSummaries(users)})
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	toUserID := req.UserID
	if toUserID == "" && req.FriendCode != "" {
		target, err := h.friendCodes.Lookup(req.FriendCode)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "friend code not found"})
			return
		}
		toUserID = target.ID
	}
	if toUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either user_id or friend_code is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	request, err := h.friendService.SendRequest(ctx, userID, toUserID, req.Message)
	if err != nil {
		c.JSON(friendErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	direction := c.DefaultQuery("direction", "received")
	limit, offset := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	requests, total, err := h.friendService.ListRequests(ctx, userID, direction, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": total})
}

func (h *FriendHandler) RespondRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	request, err := h.friendService.RespondRequest(ctx, userID, c.Param("id"), req.Accept)
	if err != nil {
		c.JSON(friendErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *FriendHandler) Block(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.friendService.Block(ctx, userID, req.UserID); err != nil {
		c.JSON(friendErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) Unblock(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.friendService.Unblock(ctx, userID, c.Param("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func toSummaries(users []models.User) []dto.UserSummary {
	summaries := make([]dto.UserSummary, len(users))
	for i, u := range users {
		summaries[i] = dto.UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
	}
	return summaries
}

// friendErrorStatus maps friend-service sentinel errors to HTTP codes.
func friendErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCannotFriendSelf):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyFriends),
		errors.Is(err, service.ErrRequestAlreadyPending),
		errors.Is(err, service.ErrRequestAlreadyHandled):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotRequestRecipient), errors.Is(err, service.ErrUserBlocked):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
