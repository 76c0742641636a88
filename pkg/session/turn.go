package session

// Turn is one completed exchange: what the user said and what the
// interviewer answered. Both sides are finalized text.
type Turn struct {
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`
}

// Transcript is the ordered history of a session. It grows by exactly
// one Turn per processed exchange and is never reordered.
type Transcript []Turn

// Last returns the most recent turn, or false when the transcript is
// empty.
func (t Transcript) Last() (Turn, bool) {
	if len(t) == 0 {
		return Turn{}, false
	}
	return t[len(t)-1], true
}

// Append returns a new transcript with the turn added. The receiver is
// left untouched so callers can keep a reference to the old history.
func (t Transcript) Append(turn Turn) Transcript {
	out := make(Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, turn)
}
