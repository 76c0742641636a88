package openai

// transcriptionResponse is the JSON body of /audio/transcriptions.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// speechRequest is the JSON body sent to /audio/speech.
type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// apiError mirrors the error envelope both endpoints return on failure.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
