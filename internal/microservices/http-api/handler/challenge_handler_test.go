package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockChallengeService mocks the ChallengeService interface
type MockChallengeService struct {
	mock.Mock
}

func (m *MockChallengeService) Create(ctx context.Context, fromUserID, toUserID, description string) (*models.Challenge, error) {
	args := m.Called(ctx, fromUserID, toUserID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeService) Respond(ctx context.Context, userID, challengeID string, accept bool, rangeMin, rangeMax int) (*models.Challenge, error) {
	args := m.Called(ctx, userID, challengeID, accept, rangeMin, rangeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeService) SubmitNumber(ctx context.Context, userID, challengeID string, number int) (*models.Challenge, error) {
	args := m.Called(ctx, userID, challengeID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeService) Get(ctx context.Context, userID, challengeID string) (*models.Challenge, error) {
	args := m.Called(ctx, userID, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeService) List(ctx context.Context, userID, status string, limit, offset int) ([]models.Challenge, int64, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Challenge), args.Get(1).(int64), args.Error(2)
}

func (m *MockChallengeService) Counts(ctx context.Context, userID string) (map[string]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockChallengeService) Cancel(ctx context.Context, userID, challengeID string) error {
	args := m.Called(ctx, userID, challengeID)
	return args.Error(0)
}

func (m *MockChallengeService) StalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Challenge), args.Error(1)
}

func (m *MockChallengeService) Expire(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

// challengeRouter wires the handler behind a fake auth layer that injects
// the given user id.
func challengeRouter(svc service.ChallengeService, userID string) *gin.Engine {
	router := setupRouter()
	group := router.Group("/challenges")
	group.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	NewChallengeHandler(svc).RegisterRoutes(group)
	return router
}

func TestChallengeCreate_Handler(t *testing.T) {
	mockSvc := new(MockChallengeService)
	router := challengeRouter(mockSvc, "alice")

	challenge := &models.Challenge{ID: "ch-1", FromUserID: "alice", ToUserID: "bob", Status: models.ChallengePending}
	mockSvc.On("Create", mock.Anything, "alice", "bob", "sing").Return(challenge, nil)

	body, _ := json.Marshal(dto.CreateChallengeRequest{ToUserID: "bob", Description: "sing"})
	req := httptest.NewRequest(http.MethodPost, "/challenges", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestChallengeCreate_NotFriends(t *testing.T) {
	mockSvc := new(MockChallengeService)
	router := challengeRouter(mockSvc, "alice")

	mockSvc.On("Create", mock.Anything, "alice", "bob", "sing").
		Return(nil, service.ErrNotFriends)

	body, _ := json.Marshal(dto.CreateChallengeRequest{ToUserID: "bob", Description: "sing"})
	req := httptest.NewRequest(http.MethodPost, "/challenges", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChallengeRespond_Handler(t *testing.T) {
	mockSvc := new(MockChallengeService)
	router := challengeRouter(mockSvc, "bob")

	accepted := &models.Challenge{ID: "ch-1", Status: models.ChallengeAccepted}
	mockSvc.On("Respond", mock.Anything, "bob", "ch-1", true, 1, 10).Return(accepted, nil)

	body, _ := json.Marshal(dto.RespondChallengeRequest{Accept: true, RangeMin: 1, RangeMax: 10})
	req := httptest.NewRequest(http.MethodPut, "/challenges/ch-1/respond", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.ChallengeAccepted)
}

func TestSubmitNumber_ConflictWhenAlreadySet(t *testing.T) {
	mockSvc := new(MockChallengeService)
	router := challengeRouter(mockSvc, "alice")

	mockSvc.On("SubmitNumber", mock.Anything, "alice", "ch-1", 7).
		Return(nil, service.ErrNumberAlreadySet)

	body, _ := json.Marshal(dto.SubmitNumberRequest{Number: 7})
	req := httptest.NewRequest(http.MethodPost, "/challenges/ch-1/number", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChallengeGet_Forbidden(t *testing.T) {
	mockSvc := new(MockChallengeService)
	router := challengeRouter(mockSvc, "mallory")

	mockSvc.On("Get", mock.Anything, "mallory", "ch-1").
		Return(nil, service.ErrNotParticipant)

	req := httptest.NewRequest(http.MethodGet, "/challenges/ch-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChallengeCancel_Handler(t *testing.T) {
	mockSvc := new(MockChallengeService)
	router := challengeRouter(mockSvc, "alice")

	mockSvc.On("Cancel", mock.Anything, "alice", "ch-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/challenges/ch-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
