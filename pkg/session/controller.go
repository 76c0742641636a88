package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prepmate/prepmate/pkg/audio"
	"github.com/prepmate/prepmate/pkg/llm"
	"github.com/prepmate/prepmate/pkg/speech"
)

const (
	completionTemperature = 0.7
	completionMaxTokens   = 900
)

var (
	ErrNoClient = errors.New("session: llm client is required")
	ErrNoModel  = errors.New("session: model name is required")

	// ErrNoTranscriber is returned when audio input arrives but no
	// transcriber was wired in at construction.
	ErrNoTranscriber = errors.New("session: no transcriber configured for audio input")

	// ErrNoSynthesizer is returned when voice replies are requested
	// but no synthesizer was wired in at construction.
	ErrNoSynthesizer = errors.New("session: no synthesizer configured for voice replies")
)

// TurnInput is everything the user submitted for one exchange.
type TurnInput struct {
	// Text is what the user typed. Whitespace-only input counts as
	// empty.
	Text string

	// Clip is the recorded answer, consulted only when Text is empty.
	Clip *audio.Clip

	// Config frames the interview for this turn.
	Config Config
}

// TurnResult describes what one call to ProcessTurn did.
type TurnResult struct {
	// NoOp is set when there was no effective input. Nothing was
	// called and the transcript is unchanged.
	NoOp bool

	// UserText is the resolved user message as stored in the
	// transcript, including a transcription diagnostic when speech
	// recognition failed.
	UserText string

	// AssistantText is the interviewer's reply, or the final report
	// when WrapUp is set.
	AssistantText string

	// WrapUp is set when the closing handshake fired and
	// AssistantText holds the final evaluation.
	WrapUp bool

	// TranscriptionErr carries the underlying speech recognition
	// failure. The turn still proceeds with a diagnostic message, but
	// callers can flag it to the user distinctly from a real answer.
	TranscriptionErr error

	// Speech is the synthesized reply audio, present only when the
	// config asked for voice replies.
	Speech []byte
}

// Controller drives the interview loop: resolve the user's message,
// detect the closing handshake, call the model, and grow the
// transcript by one turn.
//
// A Controller holds no session state of its own; the transcript is
// owned by the caller and passed in and out of every call. It is safe
// for use by a single session at a time.
type Controller struct {
	client      llm.Client
	model       string
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	logger      *zap.Logger
}

// NewController wires up a controller. The llm client and model are
// required; transcriber and synthesizer may be nil when audio input or
// voice replies are not used.
func NewController(client llm.Client, model string, transcriber speech.Transcriber, synthesizer speech.Synthesizer, logger *zap.Logger) (*Controller, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if model == "" {
		return nil, ErrNoModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		client:      client,
		model:       model,
		transcriber: transcriber,
		synthesizer: synthesizer,
		logger:      logger,
	}, nil
}

// ProcessTurn runs one exchange. The returned transcript is a new
// slice; the input transcript is never mutated. A nil-error return
// with result.NoOp set means nothing happened. Transcription failures
// do not fail the turn, they become a diagnostic user message and are
// reported via result.TranscriptionErr. Model and synthesis failures
// are returned as errors with the transcript unchanged.
func (c *Controller) ProcessTurn(ctx context.Context, transcript Transcript, input TurnInput) (Transcript, *TurnResult, error) {
	result := &TurnResult{}

	userMsg := strings.TrimSpace(input.Text)
	if userMsg == "" && input.Clip != nil {
		text, err := c.transcribe(ctx, input.Clip)
		if err != nil {
			result.TranscriptionErr = err
			userMsg = fmt.Sprintf("[Transcription error: %v]", err)
			c.logger.Warn("transcription failed, forwarding diagnostic as user message", zap.Error(err))
		} else {
			userMsg = strings.TrimSpace(text)
		}
	}

	if userMsg == "" {
		result.NoOp = true
		return transcript, result, nil
	}
	result.UserText = userMsg

	current := userMsg
	if shouldWrapUp(transcript, userMsg) {
		result.WrapUp = true
		current = finalEvaluationPrompt
		c.logger.Info("wrap-up handshake detected, requesting final evaluation")
	}

	temperature := completionTemperature
	maxTokens := completionMaxTokens
	resp, err := c.client.Complete(ctx, &llm.ChatRequest{
		Model:       c.model,
		Messages:    BuildMessages(input.Config, transcript, current),
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return transcript, nil, fmt.Errorf("completing turn: %w", err)
	}
	result.AssistantText = resp.Message.Content

	// History records the literal user message even on the closing
	// turn; the evaluation prompt is never stored.
	updated := transcript.Append(Turn{UserText: userMsg, AssistantText: result.AssistantText})

	if input.Config.VoiceReply {
		payload, err := c.synthesize(ctx, result.AssistantText)
		if err != nil {
			return transcript, nil, fmt.Errorf("synthesizing reply: %w", err)
		}
		result.Speech = payload
	}

	c.logger.Debug("turn processed",
		zap.Int("transcript_len", len(updated)),
		zap.Bool("wrap_up", result.WrapUp),
		zap.Bool("voice_reply", input.Config.VoiceReply))

	return updated, result, nil
}

func (c *Controller) transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	if c.transcriber == nil {
		return "", ErrNoTranscriber
	}
	return c.transcriber.Transcribe(ctx, clip)
}

func (c *Controller) synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.synthesizer == nil {
		return nil, ErrNoSynthesizer
	}
	return c.synthesizer.Synthesize(ctx, text)
}
