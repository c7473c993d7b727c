// internal/game/types.go
//
// Core type definitions for the game session engine.
// Defines:
//   - Type: the five mini-game formats.
//   - Status: session lifecycle (in_progress → completed | failed).
//   - AssociationSnapshot: the number → hero/action/object triple frozen at start.
//   - State: per-type puzzle state (common base + one payload per game type).
//   - Session: the mutable aggregate persisted by a Store.

package game

import (
	"strings"
	"time"
)

// Type identifies a mini-game format.
type Type string

const (
	TypeMatchHao        Type = "MatchHao"
	TypeMemoryFlash     Type = "MemoryFlash"
	TypeNumberStory     Type = "NumberStory"
	TypeSpeedRecall     Type = "SpeedRecall"
	TypeAssociationDuel Type = "AssociationDuel"
)

// Types lists every supported game type in a stable order.
var Types = []Type{TypeMatchHao, TypeMemoryFlash, TypeNumberStory, TypeSpeedRecall, TypeAssociationDuel}

// ParseType resolves a game type name, ignoring case.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// UsesDecoys reports whether building the puzzle needs other catalog records.
func (t Type) UsesDecoys() bool {
	return t == TypeMatchHao || t == TypeMemoryFlash
}

// Status is the session lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Element is one slot of an association triple.
type Element string

const (
	ElementHero   Element = "hero"
	ElementAction Element = "action"
	ElementObject Element = "object"
)

// Elements lists the three slots in display order.
var Elements = []Element{ElementHero, ElementAction, ElementObject}

// AssociationSnapshot is an immutable copy of one catalog record.
type AssociationSnapshot struct {
	ID          int64  `json:"id"`
	Number      int    `json:"number"`
	Hero        string `json:"hero"`
	Action      string `json:"action"`
	Object      string `json:"object"`
	Explanation string `json:"explanation,omitempty"`
}

// Value returns the association's value for one slot.
func (a AssociationSnapshot) Value(e Element) string {
	return a.Scene().Value(e)
}

// Scene returns the hero/action/object triple as a Scene.
func (a AssociationSnapshot) Scene() Scene {
	return Scene{Hero: a.Hero, Action: a.Action, Object: a.Object}
}

// Scene is a hero/action/object picture shown to the player.
type Scene struct {
	Hero   string `json:"hero"`
	Action string `json:"action"`
	Object string `json:"object"`
}

// Value returns the scene's value for one slot.
func (s Scene) Value(e Element) string {
	switch e {
	case ElementHero:
		return s.Hero
	case ElementAction:
		return s.Action
	case ElementObject:
		return s.Object
	}
	return ""
}

// With returns a copy of the scene with one slot replaced.
func (s Scene) With(e Element, v string) Scene {
	switch e {
	case ElementHero:
		s.Hero = v
	case ElementAction:
		s.Action = v
	case ElementObject:
		s.Object = v
	}
	return s
}

// Settings is the caller-supplied option bag (e.g. memorizationTime).
type Settings map[string]any

// Answer is the untyped payload a player submits.
type Answer map[string]any

// Categories holds the multiple-choice options per slot.
type Categories struct {
	Hero   []string `json:"hero"`
	Action []string `json:"action"`
	Object []string `json:"object"`
}

// MatchHaoState is the MatchHao payload.
type MatchHaoState struct {
	Prompt     string     `json:"prompt"`
	Categories Categories `json:"categories"`
}

// Memory flash phases.
const (
	PhaseMemorizing = "memorizing"
	PhaseCompleted  = "completed"
)

// Reveal is attached to a MemoryFlash state once the answer is in.
type Reveal struct {
	ChangedElement Element `json:"changedElement"`
	ModifiedScene  Scene   `json:"modifiedScene"`
}

// MemoryFlashState is the MemoryFlash payload.
type MemoryFlashState struct {
	Phase            string  `json:"phase"`
	MemorizationTime int     `json:"memorizationTime"`
	ChangedElement   Element `json:"changedElement"`
	OriginalScene    Scene   `json:"originalScene"`
	ModifiedScene    Scene   `json:"modifiedScene"`
	Reveal           *Reveal `json:"reveal,omitempty"`
}

// SpeedRecallState is the SpeedRecall payload.
type SpeedRecallState struct {
	Prompt   string `json:"prompt"`
	Attempts int    `json:"attempts"`
}

// State is the per-session puzzle state. The base fields are always set;
// at most one payload is non-nil and it must match the session type.
// NumberStory and AssociationDuel carry the base only.
type State struct {
	Association *AssociationSnapshot `json:"association"`
	Settings    Settings             `json:"settings,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`

	MatchHao    *MatchHaoState    `json:"matchHao,omitempty"`
	MemoryFlash *MemoryFlashState `json:"memoryFlash,omitempty"`
	SpeedRecall *SpeedRecallState `json:"speedRecall,omitempty"`
}

// Attempt records one evaluated answer.
type Attempt struct {
	Answer        Answer    `json:"answer"`
	ElapsedMs     *int64    `json:"elapsedMs,omitempty"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsAwarded int       `json:"pointsAwarded"`
	XPAwarded     int       `json:"xpAwarded"`
	EvaluatedAt   time.Time `json:"evaluatedAt"`
}

// Summary describes the most recent evaluation.
type Summary struct {
	IsCorrect     bool      `json:"isCorrect"`
	PointsAwarded int       `json:"pointsAwarded"`
	XPAwarded     int       `json:"xpAwarded"`
	EvaluatedAt   time.Time `json:"evaluatedAt"`
}

// Details is what the evaluator hands back for client-side review.
type Details struct {
	Expected               AssociationSnapshot `json:"expected"`
	Received               Answer              `json:"received"`
	ElapsedMs              *int64              `json:"elapsedMs,omitempty"`
	ExpectedChangedElement Element             `json:"expectedChangedElement,omitempty"`
	ModifiedScene          *Scene              `json:"modifiedScene,omitempty"`
}

// Result accumulates attempts plus the latest evaluation.
type Result struct {
	Attempts []Attempt `json:"attempts"`
	Summary  *Summary  `json:"summary,omitempty"`
	Details  *Details  `json:"details,omitempty"`
}

// Feedback is a free-form note left by a player.
type Feedback struct {
	Message   string    `json:"message"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session holds one playthrough of a game type against one association.
type Session struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Number      int        `json:"number"`
	PlayerID    *string    `json:"playerId,omitempty"`
	Status      Status     `json:"status"`
	Difficulty  int        `json:"difficulty"`
	Settings    Settings   `json:"settings,omitempty"`
	State       State      `json:"state"`
	Result      Result     `json:"result"`
	Feedback    []Feedback `json:"feedback"`
	Points      int        `json:"points"`
	XP          int        `json:"xp"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
