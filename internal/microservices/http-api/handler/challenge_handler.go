package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	challengeService service.ChallengeService
}

func NewChallengeHandler(challengeService service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/counts", h.Counts)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/respond", h.Respond)
	rg.POST("/:id/number", h.SubmitNumber)
	rg.DELETE("/:id", h.Cancel)
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	challenge, err := h.challengeService.Create(ctx, userID, req.ToUserID, req.Description)
	if err != nil {
		c.JSON(challengeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

func (h *ChallengeHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	status := c.Query("status")
	limit, offset := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	challenges, total, err := h.challengeService.List(ctx, userID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges, "total": total})
}

func (h *ChallengeHandler) Counts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	counts, err := h.challengeService.Counts(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	challenge, err := h.challengeService.Get(ctx, userID, c.Param("id"))
	if err != nil {
		c.JSON(challengeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Respond(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.RespondChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	challenge, err := h.challengeService.Respond(ctx, userID, c.Param("id"), req.Accept, req.RangeMin, req.RangeMax)
	if err != nil {
		c.JSON(challengeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) SubmitNumber(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	challenge, err := h.challengeService.SubmitNumber(ctx, userID, c.Param("id"), req.Number)
	if err != nil {
		c.JSON(challengeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.challengeService.Cancel(ctx, userID, c.Param("id")); err != nil {
		c.JSON(challengeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// challengeErrorStatus maps challenge-service sentinel errors to HTTP codes.
func challengeErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrChallengeNotFound), errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotChallengeRecipient),
		errors.Is(err, service.ErrNotChallengeCreator),
		errors.Is(err, service.ErrUserBlocked):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCannotChallengeSelf),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrNumberOutOfRange),
		errors.Is(err, service.ErrNotFriends):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrChallengeNotPending),
		errors.Is(err, service.ErrChallengeNotPlayable),
		errors.Is(err, service.ErrNumberAlreadySet):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
