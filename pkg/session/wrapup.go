package session

import "strings"

// Phrases the interviewer uses when offering to end the session. The
// offer is detected on the previous assistant message, not the current
// one.
var stopOfferPhrases = []string{
	"wrap up",
	"stop here",
	"end the interview",
	"want to stop",
}

// Keywords that count as the candidate accepting the offer.
var agreementKeywords = []string{
	"yes", "okay", "ok", "sure", "let's wrap", "wrap up",
	"stop", "end", "finish", "i am done", "done",
}

// OfferedStop reports whether the interviewer's message proposed ending
// the session. Matching is case-insensitive substring search.
func OfferedStop(assistantText string) bool {
	return containsAny(assistantText, stopOfferPhrases)
}

// AgreedStop reports whether the candidate's message accepts an offer
// to end the session.
func AgreedStop(userText string) bool {
	return containsAny(userText, agreementKeywords)
}

// shouldWrapUp is the two-party handshake: the interviewer must have
// offered to stop in its last message and the candidate must agree in
// the current one. Either side alone is not enough, so a stray "stop"
// mid-answer never cuts the interview short.
func shouldWrapUp(transcript Transcript, userText string) bool {
	last, ok := transcript.Last()
	if !ok {
		return false
	}
	return OfferedStop(last.AssistantText) && AgreedStop(userText)
}

func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
