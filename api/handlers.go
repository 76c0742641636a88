package api

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/prepmate/prepmate/pkg/audio"
	"github.com/prepmate/prepmate/pkg/llm"
	"github.com/prepmate/prepmate/pkg/session"
	"github.com/prepmate/prepmate/pkg/storage"
	"github.com/prepmate/prepmate/pkg/utils"
)

// CreateSessionRequest opens a new interview.
type CreateSessionRequest struct {
	Role       string `json:"role"`
	Level      string `json:"level"`
	VoiceReply bool   `json:"voice_reply"`
}

// TurnRequest submits one answer. Text wins over audio when both are
// present. Role, Level and VoiceReply are optional overrides that update
// the stored session config for this and future turns; already recorded
// turns keep the framing they were produced under.
type TurnRequest struct {
	Text       string        `json:"text"`
	Audio      *AudioPayload `json:"audio,omitempty"`
	Role       string        `json:"role,omitempty"`
	Level      string        `json:"level,omitempty"`
	VoiceReply *bool         `json:"voice_reply,omitempty"`
}

// AudioPayload carries raw microphone samples: little-endian float32
// values, base64 encoded, interleaved when Channels is 2.
type AudioPayload struct {
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Data       string `json:"data"`
}

// TurnResponse reports what one submitted answer did.
type TurnResponse struct {
	NoOp               bool   `json:"no_op"`
	UserText           string `json:"user_text,omitempty"`
	AssistantText      string `json:"assistant_text,omitempty"`
	WrapUp             bool   `json:"wrap_up"`
	TranscriptionError string `json:"transcription_error,omitempty"`
	// Speech is the mp3 reply, base64 encoded, present only when the
	// session asked for voice replies.
	Speech        string `json:"speech,omitempty"`
	TranscriptLen int    `json:"transcript_len"`
	Concluded     bool   `json:"concluded"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	cfg := session.DefaultConfig()
	cfg.VoiceReply = req.VoiceReply
	if req.Role != "" {
		role, err := session.ParseRole(req.Role)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
		cfg.Role = role
	}
	if req.Level != "" {
		level, err := session.ParseLevel(req.Level)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
		cfg.Level = level
	}

	sess, err := s.store.Create(c.Context(), cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to create session"})
	}

	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.store.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list sessions"})
	}

	return c.JSON(map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	}
	return c.JSON(sess)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// errSessionConcluded aborts a turn against a finished interview.
var errSessionConcluded = errors.New("session already concluded")

func (s *Server) handleTurn(c *fiber.Ctx) error {
	var req TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	clip, err := decodeAudioPayload(req.Audio)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	var role session.Role
	if req.Role != "" {
		if role, err = session.ParseRole(req.Role); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
	}
	var level session.Level
	if req.Level != "" {
		if level, err = session.ParseLevel(req.Level); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
	}

	var result *session.TurnResult
	sess, err := s.store.Update(c.Context(), c.Params("id"), func(sess *storage.Session) error {
		if sess.Concluded {
			return errSessionConcluded
		}

		if role != "" {
			sess.Config.Role = role
		}
		if level != "" {
			sess.Config.Level = level
		}
		if req.VoiceReply != nil {
			sess.Config.VoiceReply = *req.VoiceReply
		}

		updated, res, err := s.controller.ProcessTurn(c.Context(), sess.Transcript, session.TurnInput{
			Text:   req.Text,
			Clip:   clip,
			Config: sess.Config,
		})
		if err != nil {
			return err
		}

		sess.Transcript = updated
		if res.WrapUp {
			sess.Concluded = true
		}
		result = res
		return nil
	})

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	case errors.Is(err, errSessionConcluded):
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: "session already concluded"})
	case err != nil:
		s.logger.Error("turn failed", zap.String("session", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	s.logger.Debug("turn completed",
		zap.String("session", sess.ID),
		zap.Bool("wrap_up", result.WrapUp),
		zap.String("assistant", utils.Truncate(result.AssistantText, 120)))

	resp := TurnResponse{
		NoOp:          result.NoOp,
		UserText:      result.UserText,
		AssistantText: result.AssistantText,
		WrapUp:        result.WrapUp,
		TranscriptLen: len(sess.Transcript),
		Concluded:     sess.Concluded,
	}
	if result.TranscriptionErr != nil {
		resp.TranscriptionError = result.TranscriptionErr.Error()
	}
	if len(result.Speech) > 0 {
		resp.Speech = base64.StdEncoding.EncodeToString(result.Speech)
	}

	return c.JSON(resp)
}

// decodeAudioPayload turns the wire form into a clip. A nil payload is
// valid and means no recording was submitted.
func decodeAudioPayload(p *AudioPayload) (*audio.Clip, error) {
	if p == nil {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid audio data: %w", err)
	}
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, errors.New("invalid audio data: expected little-endian float32 samples")
	}

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	clip := &audio.Clip{
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		Samples:    samples,
	}
	if err := clip.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio payload: %w", err)
	}
	return clip, nil
}
