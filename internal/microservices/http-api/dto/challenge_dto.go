package dto

// Data Transfer Objects for the challenges API

// CreateChallengeRequest: payload to dare a friend
type CreateChallengeRequest struct {
	ToUserID    string `json:"to_user_id" binding:"required"`
	Description string `json:"description" binding:"required,min=1,max=500"`
}

// RespondChallengeRequest: payload to accept (with a number range) or reject
// a pending challenge. The range is required only when accepting.
type RespondChallengeRequest struct {
	Accept   bool `json:"accept"`
	RangeMin int  `json:"range_min,omitempty"`
	RangeMax int  `json:"range_max,omitempty"`
}

// SubmitNumberRequest: payload for one player's pick
type SubmitNumberRequest struct {
	Number int `json:"number" binding:"required"`
}
