// internal/game/puzzle.go
//
// Puzzle builder: turns an association snapshot into the initial state of a
// session. Decoy records (other catalog entries) are fetched by the caller
// and passed in; this file never touches storage.
//
//   - MatchHao:    up to 4 shuffled options per slot, correct value included once.
//   - MemoryFlash: one slot swapped for a decoy in a "modified" scene.
//   - SpeedRecall: a prompt and an attempt counter.
//   - others:      base state only.

package game

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// MaxDecoyRecords bounds how many other catalog records feed a puzzle.
	MaxDecoyRecords = 50

	optionsPerCategory = 4

	DefaultMemorizationTime = 5
	minMemorizationTime     = 3
	maxMemorizationTime     = 10
)

// BuildState produces the initial state for a session of type t.
func BuildState(t Type, a AssociationSnapshot, settings Settings, others []AssociationSnapshot, rnd Rand, now time.Time) State {
	snap := a
	st := State{
		Association: &snap,
		Settings:    settings,
		CreatedAt:   now,
	}

	switch t {
	case TypeMatchHao:
		st.MatchHao = buildMatchHao(a, others, rnd)
	case TypeMemoryFlash:
		st.MemoryFlash = buildMemoryFlash(a, settings, others, rnd)
	case TypeSpeedRecall:
		st.SpeedRecall = &SpeedRecallState{
			Prompt:   fmt.Sprintf("Quick! Recall the hero, action and object for number %02d.", a.Number),
			Attempts: 0,
		}
	}
	return st
}

func buildMatchHao(a AssociationSnapshot, others []AssociationSnapshot, rnd Rand) *MatchHaoState {
	return &MatchHaoState{
		Prompt: fmt.Sprintf("Pick the hero, action and object that belong to number %02d.", a.Number),
		Categories: Categories{
			Hero:   optionSet(a, ElementHero, others, rnd),
			Action: optionSet(a, ElementAction, others, rnd),
			Object: optionSet(a, ElementObject, others, rnd),
		},
	}
}

// optionSet starts with the correct value, adds decoys until four unique
// (case-insensitive, trimmed) values are collected, then shuffles.
func optionSet(a AssociationSnapshot, e Element, others []AssociationSnapshot, rnd Rand) []string {
	correct := a.Value(e)
	options := []string{correct}
	seen := map[string]struct{}{normalize(correct): {}}

	for _, v := range decoyValues(e, others, rnd) {
		if len(options) == optionsPerCategory {
			break
		}
		key := normalize(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		options = append(options, v)
	}

	rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}

// decoyValues returns the non-empty trimmed values of slot e in random order.
func decoyValues(e Element, others []AssociationSnapshot, rnd Rand) []string {
	out := make([]string, 0, len(others))
	for _, o := range others {
		if v := strings.TrimSpace(o.Value(e)); v != "" {
			out = append(out, v)
		}
	}
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func buildMemoryFlash(a AssociationSnapshot, settings Settings, others []AssociationSnapshot, rnd Rand) *MemoryFlashState {
	changed := Elements[rnd.IntN(len(Elements))]
	correct := normalize(a.Value(changed))

	var candidates []string
	for _, v := range decoyValues(changed, others, rnd) {
		if normalize(v) != correct {
			candidates = append(candidates, v)
		}
	}

	var decoy string
	if len(candidates) > 0 {
		decoy = candidates[rnd.IntN(len(candidates))]
	} else {
		decoy = placeholder(changed, a.Value(changed))
	}

	original := a.Scene()
	return &MemoryFlashState{
		Phase:            PhaseMemorizing,
		MemorizationTime: MemorizationTime(settings),
		ChangedElement:   changed,
		OriginalScene:    original,
		ModifiedScene:    original.With(changed, decoy),
	}
}

// placeholder synthesizes a decoy when the catalog has none to offer.
func placeholder(e Element, correct string) string {
	p := "mystery " + string(e)
	if normalize(p) == normalize(correct) {
		p = "another " + p
	}
	return p
}

// MemorizationTime reads settings["memorizationTime"], accepting whole
// numbers in [3,10] and falling back to the default otherwise.
func MemorizationTime(settings Settings) int {
	raw, ok := settings["memorizationTime"]
	if !ok {
		return DefaultMemorizationTime
	}
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	default:
		return DefaultMemorizationTime
	}
	if f != math.Trunc(f) || f < minMemorizationTime || f > maxMemorizationTime {
		return DefaultMemorizationTime
	}
	return int(f)
}

// normalize is the comparison key used for answers and de-duplication.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
