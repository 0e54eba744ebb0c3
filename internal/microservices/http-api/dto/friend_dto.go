package dto

// Data Transfer Objects for the friends API

// SendFriendRequestRequest: payload to open a friend request. Exactly one of
// user_id or friend_code identifies the recipient.
type SendFriendRequestRequest struct {
	UserID     string `json:"user_id,omitempty"`
	FriendCode string `json:"friend_code,omitempty"`
	Message    string `json:"message,omitempty" binding:"max=200"`
}

// RespondFriendRequestRequest: payload to accept or reject a request
type RespondFriendRequestRequest struct {
	Accept bool `json:"accept"`
}

// BlockUserRequest: payload to block another user
type BlockUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason,omitempty" binding:"max=200"`
}

// UserSummary: the public slice of a user exposed to other players
type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}
