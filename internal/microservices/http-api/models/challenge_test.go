package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func testChallenge(status string) Challenge {
	return Challenge{
		ID:          "c1",
		Description: "sing in the hallway",
		FromUserID:  "alice",
		ToUserID:    "bob",
		Status:      status,
		RangeMin:    intp(1),
		RangeMax:    intp(10),
		FromNumber:  intp(7),
		ToNumber:    intp(3),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestChallengeJSON_HidesNumbersWhileInPlay(t *testing.T) {
	for _, status := range []string{ChallengePending, ChallengeAccepted, ChallengeActive} {
		raw, err := json.Marshal(testChallenge(status))
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields))
		assert.NotContains(t, fields, "from_number", "status %s", status)
		assert.NotContains(t, fields, "to_number", "status %s", status)
	}
}

func TestChallengeJSON_RevealsNumbersOnCompletion(t *testing.T) {
	challenge := testChallenge(ChallengeCompleted)
	result := ResultNoMatch
	challenge.Result = &result

	raw, err := json.Marshal(challenge)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, float64(7), fields["from_number"])
	assert.Equal(t, float64(3), fields["to_number"])
	assert.Equal(t, "no_match", fields["result"])
}

func TestChallengeJSON_CompletedRoundTrip(t *testing.T) {
	raw, err := json.Marshal(testChallenge(ChallengeCompleted))
	require.NoError(t, err)

	var decoded Challenge
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.FromNumber)
	require.NotNil(t, decoded.ToNumber)
	assert.Equal(t, 7, *decoded.FromNumber)
	assert.Equal(t, 3, *decoded.ToNumber)
	assert.True(t, decoded.BothNumbersIn())
}
