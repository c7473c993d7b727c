package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/robalobadob/numberhero/internal/game"
)

const (
	MinDifficulty     = 1
	MaxDifficulty     = 5
	MaxFeedbackLength = 1000

	minNumber         = 0
	maxNumber         = 99
	minFeedbackRating = 1
	maxFeedbackRating = 5
)

// StartParams are the inputs to StartSession. A nil Number asks for a
// random primary association; a zero Difficulty means 1. Type is matched
// case-insensitively.
type StartParams struct {
	Type       game.Type
	Number     *int
	PlayerID   *string
	Difficulty int
	Settings   game.Settings
}

func (p StartParams) withDefaults() StartParams {
	if p.Difficulty == 0 {
		p.Difficulty = MinDifficulty
	}
	if t, ok := game.ParseType(string(p.Type)); ok {
		p.Type = t
	}
	return p
}

// Validate rejects unknown types and out-of-range numbers or difficulties.
func (p StartParams) Validate() error {
	if _, ok := game.ParseType(string(p.Type)); !ok {
		return &game.ValidationError{Field: "type", Msg: "unknown game type " + string(p.Type)}
	}
	if p.Number != nil && (*p.Number < minNumber || *p.Number > maxNumber) {
		return &game.ValidationError{Field: "number", Msg: "must be between 0 and 99"}
	}
	if p.Difficulty < MinDifficulty || p.Difficulty > MaxDifficulty {
		return &game.ValidationError{Field: "difficulty", Msg: "must be between 1 and 5"}
	}
	return nil
}

// ValidateFeedback checks a feedback message and optional rating.
func ValidateFeedback(message string, rating *int) error {
	if strings.TrimSpace(message) == "" {
		return &game.ValidationError{Field: "message", Msg: "must not be empty"}
	}
	if utf8.RuneCountInString(message) > MaxFeedbackLength {
		return &game.ValidationError{Field: "message", Msg: "must be at most 1000 characters"}
	}
	if rating != nil && (*rating < minFeedbackRating || *rating > maxFeedbackRating) {
		return &game.ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
	}
	return nil
}
