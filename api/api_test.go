package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/prepmate/prepmate/pkg/audio"
	"github.com/prepmate/prepmate/pkg/llm"
	"github.com/prepmate/prepmate/pkg/session"
	"github.com/prepmate/prepmate/pkg/storage"
	"github.com/prepmate/prepmate/pkg/storage/inmemory"
)

type scriptedLLM struct {
	reply    string
	err      error
	requests []*llm.ChatRequest
}

func (s *scriptedLLM) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{
		Model:   req.Model,
		Message: llm.Message{Role: llm.RoleAssistant, Content: s.reply},
	}, nil
}

type scriptedTranscriber struct {
	text string
	err  error
}

func (s *scriptedTranscriber) Transcribe(context.Context, *audio.Clip) (string, error) {
	return s.text, s.err
}

type scriptedSynthesizer struct {
	payload []byte
}

func (s *scriptedSynthesizer) Synthesize(context.Context, string) ([]byte, error) {
	return s.payload, nil
}

func encodeSamples(samples []float32) string {
	buf := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

var _ = Describe("Server", func() {
	var (
		server *Server
		store  storage.Store
		model  *scriptedLLM
	)

	request := func(method, path string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(payload)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	}

	createSession := func(body CreateSessionRequest) storage.Session {
		resp := request(http.MethodPost, "/sessions", body)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var sess storage.Session
		decode(resp, &sess)
		return sess
	}

	BeforeEach(func() {
		store = inmemory.New()
		model = &scriptedLLM{reply: "Tell me about a project you are proud of."}

		controller, err := session.NewController(model, "llama-3.1-8b-instant",
			&scriptedTranscriber{text: "I built a dashboard."},
			&scriptedSynthesizer{payload: []byte("mp3")},
			zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, store, controller, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("GET /ping", func() {
		It("answers pong", func() {
			resp := request(http.MethodGet, "/ping", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var body string
			decode(resp, &body)
			Expect(body).To(Equal("pong"))
		})
	})

	Describe("POST /sessions", func() {
		It("creates a session with the requested framing", func() {
			sess := createSession(CreateSessionRequest{Role: "Software Engineer", Level: "Senior", VoiceReply: true})
			Expect(sess.ID).NotTo(BeEmpty())
			Expect(sess.Config.Role).To(Equal(session.RoleSoftwareEngineer))
			Expect(sess.Config.Level).To(Equal(session.LevelSenior))
			Expect(sess.Config.VoiceReply).To(BeTrue())
		})

		It("falls back to the default role and level", func() {
			sess := createSession(CreateSessionRequest{})
			Expect(sess.Config.Role).To(Equal(session.RoleDataAnalyst))
			Expect(sess.Config.Level).To(Equal(session.LevelJunior))
		})

		It("rejects unknown roles", func() {
			resp := request(http.MethodPost, "/sessions", CreateSessionRequest{Role: "Astronaut"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects unknown levels", func() {
			resp := request(http.MethodPost, "/sessions", CreateSessionRequest{Level: "Principal"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("session lookup and removal", func() {
		It("round-trips a session", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodGet, "/sessions/"+sess.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got storage.Session
			decode(resp, &got)
			Expect(got.ID).To(Equal(sess.ID))
		})

		It("404s on unknown ids", func() {
			resp := request(http.MethodGet, "/sessions/unknown", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("lists sessions", func() {
			createSession(CreateSessionRequest{})
			createSession(CreateSessionRequest{})

			resp := request(http.MethodGet, "/sessions", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count    int               `json:"count"`
				Sessions []storage.Session `json:"sessions"`
			}
			decode(resp, &body)
			Expect(body.Count).To(Equal(2))
			Expect(body.Sessions).To(HaveLen(2))
		})

		It("deletes a session", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodDelete, "/sessions/"+sess.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = request(http.MethodGet, "/sessions/"+sess.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /sessions/:id/turns", func() {
		It("runs a text turn and records it", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "Tell me about yourself"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var turn TurnResponse
			decode(resp, &turn)
			Expect(turn.NoOp).To(BeFalse())
			Expect(turn.UserText).To(Equal("Tell me about yourself"))
			Expect(turn.AssistantText).To(Equal(model.reply))
			Expect(turn.TranscriptLen).To(Equal(1))
			Expect(turn.Concluded).To(BeFalse())
			Expect(turn.Speech).To(BeEmpty())

			stored, err := store.Get(context.Background(), sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Transcript).To(HaveLen(1))
		})

		It("treats empty input as a no-op", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "   "})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var turn TurnResponse
			decode(resp, &turn)
			Expect(turn.NoOp).To(BeTrue())
			Expect(turn.TranscriptLen).To(BeZero())
		})

		It("transcribes audio answers", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{
				Audio: &AudioPayload{
					SampleRate: 16000,
					Channels:   1,
					Data:       encodeSamples([]float32{0.1, -0.1, 0.2}),
				},
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var turn TurnResponse
			decode(resp, &turn)
			Expect(turn.UserText).To(Equal("I built a dashboard."))
		})

		It("rejects malformed audio", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{
				Audio: &AudioPayload{SampleRate: 16000, Channels: 1, Data: "not-base64!!"},
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns voice replies when the session asked for them", func() {
			sess := createSession(CreateSessionRequest{VoiceReply: true})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "hello"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var turn TurnResponse
			decode(resp, &turn)
			Expect(turn.Speech).To(Equal(base64.StdEncoding.EncodeToString([]byte("mp3"))))
		})

		It("applies config overrides to this and future turns", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{
				Text:  "hello",
				Role:  "Software Engineer",
				Level: "Senior",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			Expect(model.requests).To(HaveLen(1))
			system := model.requests[0].Messages[0]
			Expect(system.Role).To(Equal(llm.RoleSystem))
			Expect(system.Content).To(ContainSubstring("Software Engineer"))
			Expect(system.Content).To(ContainSubstring("Senior"))

			stored, err := store.Get(context.Background(), sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Config.Role).To(Equal(session.RoleSoftwareEngineer))
			Expect(stored.Config.Level).To(Equal(session.LevelSenior))

			resp = request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "next question"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(model.requests).To(HaveLen(2))
			Expect(model.requests[1].Messages[0].Content).To(ContainSubstring("Software Engineer"))
		})

		It("persists config overrides submitted with an empty answer", func() {
			sess := createSession(CreateSessionRequest{})

			voice := true
			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{
				Role:       "Product Manager",
				VoiceReply: &voice,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var turn TurnResponse
			decode(resp, &turn)
			Expect(turn.NoOp).To(BeTrue())
			Expect(model.requests).To(BeEmpty())

			stored, err := store.Get(context.Background(), sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Config.Role).To(Equal(session.RoleProductManager))
			Expect(stored.Config.VoiceReply).To(BeTrue())
		})

		It("rejects unknown role overrides without touching the session", func() {
			sess := createSession(CreateSessionRequest{})

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "hello", Role: "Astronaut"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			stored, err := store.Get(context.Background(), sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Config.Role).To(Equal(session.RoleDataAnalyst))
			Expect(stored.Transcript).To(BeEmpty())
		})

		It("404s on unknown sessions", func() {
			resp := request(http.MethodPost, "/sessions/unknown/turns", TurnRequest{Text: "hello"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("502s when the model is unreachable", func() {
			sess := createSession(CreateSessionRequest{})
			model.err = errors.New("upstream down")

			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "hello"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			stored, err := store.Get(context.Background(), sess.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Transcript).To(BeEmpty())
		})

		It("concludes the session after the wrap-up handshake and rejects further turns", func() {
			sess := createSession(CreateSessionRequest{})

			model.reply = "Good answer. Would you like to wrap up the interview?"
			resp := request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "I shipped a migration."})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			model.reply = "FINAL INTERVIEW REPORT"
			resp = request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "yes"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var turn TurnResponse
			decode(resp, &turn)
			Expect(turn.WrapUp).To(BeTrue())
			Expect(turn.Concluded).To(BeTrue())
			Expect(turn.AssistantText).To(ContainSubstring("FINAL INTERVIEW REPORT"))

			resp = request(http.MethodPost, "/sessions/"+sess.ID+"/turns", TurnRequest{Text: "one more question"})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})
	})

	Describe("decodeAudioPayload", func() {
		It("decodes little-endian float32 samples", func() {
			clip, err := decodeAudioPayload(&AudioPayload{
				SampleRate: 8000,
				Channels:   2,
				Data:       encodeSamples([]float32{0.5, -0.5}),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(clip.SampleRate).To(Equal(8000))
			Expect(clip.Channels).To(Equal(2))
			Expect(clip.Samples).To(Equal([]float32{0.5, -0.5}))
		})

		It("passes nil through", func() {
			clip, err := decodeAudioPayload(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(clip).To(BeNil())
		})

		It("rejects truncated sample data", func() {
			_, err := decodeAudioPayload(&AudioPayload{
				SampleRate: 8000,
				Channels:   1,
				Data:       base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
			})
			Expect(err).To(HaveOccurred())
		})
	})
})
