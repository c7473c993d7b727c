package game

import "strings"

// Evaluation is the outcome of checking one answer.
type Evaluation struct {
	IsCorrect bool
	Details   Details
}

// Evaluate checks answer against the state captured when s started.
// Missing or mistyped answer fields count as incorrect; a state that lacks
// the embedded association or its type payload is a DataIntegrityError.
func Evaluate(s *Session, answer Answer, elapsedMs *int64) (Evaluation, error) {
	a := s.State.Association
	if a == nil {
		return Evaluation{}, &DataIntegrityError{SessionID: s.ID, Reason: "state has no embedded association"}
	}

	details := Details{
		Expected:  *a,
		Received:  answer,
		ElapsedMs: elapsedMs,
	}

	var correct bool
	switch s.Type {
	case TypeMatchHao:
		correct = matches(answer, "hero", a.Hero) &&
			matches(answer, "action", a.Action) &&
			matches(answer, "object", a.Object)

	case TypeMemoryFlash:
		mf := s.State.MemoryFlash
		if mf == nil {
			return Evaluation{}, &DataIntegrityError{SessionID: s.ID, Reason: "memory flash state missing"}
		}
		correct = matches(answer, "changedElement", string(mf.ChangedElement))
		details.ExpectedChangedElement = mf.ChangedElement
		scene := mf.ModifiedScene
		details.ModifiedScene = &scene

	case TypeSpeedRecall:
		correct = recalls(answer, *a)

	default:
		// NumberStory and AssociationDuel have no server-side rule.
		correct = false
	}

	return Evaluation{IsCorrect: correct, Details: details}, nil
}

// matches reports whether answer[key] is a string equal to want,
// ignoring case and surrounding whitespace.
func matches(answer Answer, key, want string) bool {
	got, ok := answer[key].(string)
	if !ok {
		return false
	}
	return normalize(got) == normalize(want)
}

// recalls reports whether answer["recall"] mentions any one of the
// association's hero, action or object.
func recalls(answer Answer, a AssociationSnapshot) bool {
	text, ok := answer["recall"].(string)
	if !ok {
		return false
	}
	text = strings.ToLower(text)
	for _, e := range Elements {
		want := normalize(a.Value(e))
		if want != "" && strings.Contains(text, want) {
			return true
		}
	}
	return false
}
