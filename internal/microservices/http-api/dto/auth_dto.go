package dto

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for user registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"required,email"`
}

// LoginRequest: payload for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse: response payload after successful authentication
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	FriendCode   string `json:"friend_code"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// RegisterResponse: response payload after successful registration
type RegisterResponse struct {
	Username   string `json:"username"`
	FriendCode string `json:"friend_code"`
	Message    string `json:"message"`
}

// RefreshTokenRequest: payload for refreshing access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest: payload for editing the caller's profile
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
}
