package model

import "time"

// Rating is a downstream user's verdict on a conversation turn that used an
// insight.
type Rating string

const (
	RatingHelpful   Rating = "helpful"
	RatingNeutral   Rating = "neutral"
	RatingUnhelpful Rating = "unhelpful"
	RatingHarmful   Rating = "harmful"
)

// ratingScores is the fixed rating -> satisfaction score map.
var ratingScores = map[Rating]float64{
	RatingHelpful:   100,
	RatingNeutral:   50,
	RatingUnhelpful: 25,
	RatingHarmful:   0,
}

// Score returns the satisfaction contribution of a rating; unknown ratings
// score neutral.
func (r Rating) Score() float64 {
	if s, ok := ratingScores[r]; ok {
		return s
	}
	return 50
}

// Negative reports whether the rating implicates the insight in a bad
// outcome.
func (r Rating) Negative() bool {
	return r == RatingUnhelpful || r == RatingHarmful
}

// KnownRating reports whether s is a valid rating value.
func KnownRating(s string) bool {
	_, ok := ratingScores[Rating(s)]
	return ok
}

// UserFeedback is one entry in the append-only, size-capped feedback log.
type UserFeedback struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	InsightID      string    `json:"insight_id,omitempty"`
	Rating         Rating    `json:"rating"`
	Category       string    `json:"category,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
