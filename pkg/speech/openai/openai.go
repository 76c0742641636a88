// Package openai implements the speech.Transcriber and speech.Synthesizer
// interfaces against an OpenAI-compatible audio API (OpenAI, Groq, or a
// local faster-whisper server).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prepmate/prepmate/pkg/audio"
)

const (
	transcriptionsPath = "/audio/transcriptions"
	speechPath         = "/audio/speech"
)

// Options configure a speech Client.
type Options struct {
	// TranscribeModel names the recognition model (e.g. "whisper-large-v3").
	TranscribeModel string

	// SpeechModel names the synthesis model (e.g. "playai-tts").
	SpeechModel string

	// Voice selects the synthesis voice.
	Voice string

	// Language is the recognition language hint. Synthesis voices are
	// language-specific, so this only rides on transcription requests.
	Language string
}

// Client talks to an OpenAI-compatible audio upstream.
type Client struct {
	upstream   string
	apiKey     string
	opts       Options
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a speech client for the given upstream base URL.
func New(upstream, apiKey string, opts Options, logger *zap.Logger) (*Client, error) {
	if upstream == "" {
		return nil, errors.New("upstream URL required")
	}
	if opts.TranscribeModel == "" {
		return nil, errors.New("transcribe model required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		upstream: strings.TrimRight(upstream, "/"),
		apiKey:   apiKey,
		opts:     opts,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger,
	}, nil
}

// Transcribe downmixes the clip to mono, encodes it as WAV, and submits it
// as a multipart upload.
func (c *Client) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	wav, err := audio.EncodeWAV(clip.DownmixMono())
	if err != nil {
		return "", fmt.Errorf("encoding audio: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "answer.wav")
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("writing audio part: %w", err)
	}
	if err := mw.WriteField("model", c.opts.TranscribeModel); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if c.opts.Language != "" {
		if err := mw.WriteField("language", c.opts.Language); err != nil {
			return "", fmt.Errorf("writing language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	c.logger.Debug("sending transcription request",
		zap.String("upstream", c.upstream),
		zap.String("model", c.opts.TranscribeModel),
		zap.Float64("seconds", clip.Duration()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstream+transcriptionsPath, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request to upstream: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, upstreamMessage(respBody))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	return strings.TrimSpace(parsed.Text), nil
}

// Synthesize requests an mp3 rendering of the text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to synthesize")
	}
	if c.opts.SpeechModel == "" {
		return nil, errors.New("no speech model configured")
	}

	body, err := json.Marshal(speechRequest{
		Model:          c.opts.SpeechModel,
		Input:          text,
		Voice:          c.opts.Voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending synthesis request",
		zap.String("upstream", c.upstream),
		zap.String("model", c.opts.SpeechModel),
		zap.Int("text_len", len(text)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstream+speechPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to upstream: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, upstreamMessage(respBody))
	}

	return respBody, nil
}

// upstreamMessage extracts the error message from an API error envelope,
// falling back to the raw body.
func upstreamMessage(body []byte) string {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}
