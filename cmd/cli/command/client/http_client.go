package client

// http_client.go = typed HTTP client for the DareDuel API.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
	"dareduel/internal/microservices/http-api/service"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// RefreshedTokens is the decoded /api/auth/refresh response with the
// relative expiry already converted to an absolute unix timestamp.
type RefreshedTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

type UserListResponse struct {
	Users []dto.UserSummary `json:"users"`
	Total int64             `json:"total"`
}

type SuggestionsResponse struct {
	Suggestions []dto.UserSummary `json:"suggestions"`
}

type FriendRequestListResponse struct {
	Requests []models.FriendRequest `json:"requests"`
	Total    int64                  `json:"total"`
}

type ChallengeListResponse struct {
	Challenges []models.Challenge `json:"challenges"`
	Total      int64              `json:"total"`
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// apiError pulls the {"error": "..."} body the server attaches to failed
// requests so command output shows the reason, not just the status line.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s (%s)", body.Error, resp.Status)
	}
	return fmt.Errorf("request failed: %s", resp.Status)
}

// do sends a JSON request with the bearer token attached and decodes the
// response into out when the status matches. A nil out skips decoding, a
// nil body sends no payload.
func (c *HTTPClient) do(method, path string, body, out any, wantStatus int) error {
	var reader *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Auth

func (c *HTTPClient) Register(request *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var result dto.RegisterResponse
	if err := c.do("POST", "/api/auth/register", request, &result, http.StatusCreated); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Login(request *dto.LoginRequest) (*dto.AuthResponse, error) {
	var result dto.AuthResponse
	if err := c.do("POST", "/api/auth/login", request, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RefreshToken(refreshToken string) (*RefreshedTokens, error) {
	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	body := dto.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := c.do("POST", "/api/auth/refresh", &body, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &RefreshedTokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().Unix() + result.ExpiresIn,
	}, nil
}

func (c *HTTPClient) RevokeToken(refreshToken string) error {
	body := dto.RefreshTokenRequest{RefreshToken: refreshToken}
	return c.do("POST", "/api/auth/revoke", &body, nil, http.StatusNoContent)
}

// Users

func (c *HTTPClient) GetProfile() (*models.User, error) {
	var result models.User
	if err := c.do("GET", "/api/users/me", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) UpdateProfile(displayName string) (*models.User, error) {
	var result models.User
	body := dto.UpdateProfileRequest{DisplayName: displayName}
	if err := c.do("PUT", "/api/users/me", &body, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RegenerateFriendCode() (string, error) {
	var result struct {
		FriendCode string `json:"friend_code"`
	}
	if err := c.do("POST", "/api/users/me/friend-code", nil, &result, http.StatusOK); err != nil {
		return "", err
	}
	return result.FriendCode, nil
}

func (c *HTTPClient) LookupFriendCode(code string) (*dto.UserSummary, error) {
	var result dto.UserSummary
	if err := c.do("GET", "/api/users/by-code/"+url.PathEscape(code), nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

// Friends

func (c *HTTPClient) ListFriends(limit, offset int) (*service.FriendsPage, error) {
	var result service.FriendsPage
	path := fmt.Sprintf("/api/friends?limit=%d&offset=%d", limit, offset)
	if err := c.do("GET", path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RemoveFriend(userID string) error {
	return c.do("DELETE", "/api/friends/"+url.PathEscape(userID), nil, nil, http.StatusNoContent)
}

func (c *HTTPClient) SearchUsers(query string) (*UserListResponse, error) {
	var result UserListResponse
	path := "/api/friends/search?q=" + url.QueryEscape(query)
	if err := c.do("GET", path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) FriendSuggestions() ([]dto.UserSummary, error) {
	var result SuggestionsResponse
	if err := c.do("GET", "/api/friends/suggestions", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Suggestions, nil
}

func (c *HTTPClient) SendFriendRequest(request *dto.SendFriendRequestRequest) (*models.FriendRequest, error) {
	var result models.FriendRequest
	if err := c.do("POST", "/api/friends/requests", request, &result, http.StatusCreated); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListFriendRequests(direction string) (*FriendRequestListResponse, error) {
	var result FriendRequestListResponse
	path := "/api/friends/requests?direction=" + url.QueryEscape(direction)
	if err := c.do("GET", path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RespondFriendRequest(requestID string, accept bool) (*models.FriendRequest, error) {
	var result models.FriendRequest
	body := dto.RespondFriendRequestRequest{Accept: accept}
	path := "/api/friends/requests/" + url.PathEscape(requestID)
	if err := c.do("PUT", path, &body, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) BlockUser(userID, reason string) error {
	body := dto.BlockUserRequest{UserID: userID, Reason: reason}
	return c.do("POST", "/api/friends/blocks", &body, nil, http.StatusNoContent)
}

func (c *HTTPClient) UnblockUser(userID string) error {
	return c.do("DELETE", "/api/friends/blocks/"+url.PathEscape(userID), nil, nil, http.StatusNoContent)
}

// Challenges

func (c *HTTPClient) CreateChallenge(toUserID, description string) (*models.Challenge, error) {
	var result models.Challenge
	body := dto.CreateChallengeRequest{ToUserID: toUserID, Description: description}
	if err := c.do("POST", "/api/challenges", &body, &result, http.StatusCreated); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListChallenges(status string, limit, offset int) (*ChallengeListResponse, error) {
	var result ChallengeListResponse
	path := fmt.Sprintf("/api/challenges?status=%s&limit=%d&offset=%d", url.QueryEscape(status), limit, offset)
	if err := c.do("GET", path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ChallengeCounts() (map[string]int64, error) {
	var result struct {
		Counts map[string]int64 `json:"counts"`
	}
	if err := c.do("GET", "/api/challenges/counts", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Counts, nil
}

func (c *HTTPClient) GetChallenge(id string) (*models.Challenge, error) {
	var result models.Challenge
	if err := c.do("GET", "/api/challenges/"+url.PathEscape(id), nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RespondChallenge(id string, accept bool, rangeMin, rangeMax int) (*models.Challenge, error) {
	var result models.Challenge
	body := dto.RespondChallengeRequest{Accept: accept, RangeMin: rangeMin, RangeMax: rangeMax}
	path := "/api/challenges/" + url.PathEscape(id) + "/respond"
	if err := c.do("PUT", path, &body, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SubmitNumber(id string, number int) (*models.Challenge, error) {
	var result models.Challenge
	body := dto.SubmitNumberRequest{Number: number}
	path := "/api/challenges/" + url.PathEscape(id) + "/number"
	if err := c.do("POST", path, &body, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) CancelChallenge(id string) error {
	return c.do("DELETE", "/api/challenges/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// Notifications

func (c *HTTPClient) ListNotifications(limit, offset int) (*NotificationListResponse, error) {
	var result NotificationListResponse
	path := fmt.Sprintf("/api/notifications?limit=%d&offset=%d", limit, offset)
	if err := c.do("GET", path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) UnreadNotifications() ([]models.Notification, error) {
	var result NotificationListResponse
	if err := c.do("GET", "/api/notifications/unread", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Notifications, nil
}

func (c *HTTPClient) MarkNotificationRead(id int64) error {
	path := fmt.Sprintf("/api/notifications/%d/read", id)
	return c.do("PUT", path, nil, nil, http.StatusNoContent)
}

func (c *HTTPClient) MarkAllNotificationsRead() error {
	return c.do("PUT", "/api/notifications/read-all", nil, nil, http.StatusNoContent)
}

// Stats

func (c *HTTPClient) MyStats() (*models.GameStats, error) {
	var result models.GameStats
	if err := c.do("GET", "/api/stats/me", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Leaderboard(limit int) ([]repository.LeaderboardEntry, error) {
	var result struct {
		Leaderboard []repository.LeaderboardEntry `json:"leaderboard"`
	}
	path := fmt.Sprintf("/api/stats/leaderboard?limit=%d", limit)
	if err := c.do("GET", path, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Leaderboard, nil
}

func (c *HTTPClient) GlobalTotals() (*repository.GlobalTotals, error) {
	var result repository.GlobalTotals
	if err := c.do("GET", "/api/stats/totals", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) PopularNumbers() ([]repository.NumberFrequency, error) {
	var result struct {
		Numbers []repository.NumberFrequency `json:"numbers"`
	}
	if err := c.do("GET", "/api/stats/popular-numbers", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Numbers, nil
}
