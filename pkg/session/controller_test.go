package session_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/prepmate/prepmate/pkg/audio"
	"github.com/prepmate/prepmate/pkg/llm"
	"github.com/prepmate/prepmate/pkg/session"
)

type fakeLLM struct {
	reply    string
	err      error
	requests []*llm.ChatRequest
}

func (f *fakeLLM) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{
		Model:   req.Model,
		Message: llm.Message{Role: llm.RoleAssistant, Content: f.reply},
	}, nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ *audio.Clip) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSynthesizer struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.payload, f.err
}

var _ = Describe("Controller", func() {
	var (
		model       *fakeLLM
		transcriber *fakeTranscriber
		synthesizer *fakeSynthesizer
		controller  *session.Controller
		cfg         session.Config
	)

	clip := &audio.Clip{SampleRate: 16000, Channels: 1, Samples: []float32{0.1, 0.2}}

	BeforeEach(func() {
		model = &fakeLLM{reply: "What interests you about this role?"}
		transcriber = &fakeTranscriber{text: "I enjoy working with data."}
		synthesizer = &fakeSynthesizer{payload: []byte("mp3")}
		cfg = session.DefaultConfig()

		var err error
		controller, err = session.NewController(model, "llama-3.1-8b-instant", transcriber, synthesizer, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewController", func() {
		It("requires a client", func() {
			_, err := session.NewController(nil, "m", nil, nil, nil)
			Expect(err).To(MatchError(session.ErrNoClient))
		})

		It("requires a model", func() {
			_, err := session.NewController(model, "", nil, nil, nil)
			Expect(err).To(MatchError(session.ErrNoModel))
		})
	})

	Describe("empty input", func() {
		It("is a no-op that touches no collaborator", func() {
			transcript := session.Transcript{{UserText: "hi", AssistantText: "Tell me about yourself."}}

			updated, result, err := controller.ProcessTurn(context.Background(), transcript,
				session.TurnInput{Text: "   ", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.NoOp).To(BeTrue())
			Expect(updated).To(Equal(transcript))
			Expect(model.requests).To(BeEmpty())
			Expect(transcriber.calls).To(BeZero())
			Expect(synthesizer.calls).To(BeZero())
		})

		It("stays a no-op when only the config changed", func() {
			cfg.Role = session.RoleProductManager
			cfg.Level = session.LevelSenior
			cfg.VoiceReply = true

			_, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.NoOp).To(BeTrue())
			Expect(model.requests).To(BeEmpty())
			Expect(synthesizer.calls).To(BeZero())
		})
	})

	Describe("a regular turn", func() {
		It("appends exactly one turn with the literal user text", func() {
			updated, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "Tell me about yourself", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.NoOp).To(BeFalse())
			Expect(result.WrapUp).To(BeFalse())
			Expect(updated).To(HaveLen(1))
			Expect(updated[0].UserText).To(Equal("Tell me about yourself"))
			Expect(updated[0].AssistantText).To(Equal(model.reply))
		})

		It("leaves the caller's transcript untouched", func() {
			transcript := session.Transcript{{UserText: "a", AssistantText: "b"}}

			updated, _, err := controller.ProcessTurn(context.Background(), transcript,
				session.TurnInput{Text: "next answer", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(transcript).To(HaveLen(1))
			Expect(updated).To(HaveLen(2))
		})

		It("sends the system prompt, the replayed history, then the new message", func() {
			transcript := session.Transcript{
				{UserText: "first answer", AssistantText: "first follow-up"},
			}
			cfg.Role = session.RoleSoftwareEngineer
			cfg.Level = session.LevelSenior

			_, _, err := controller.ProcessTurn(context.Background(), transcript,
				session.TurnInput{Text: "second answer", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(model.requests).To(HaveLen(1))
			req := model.requests[0]
			Expect(req.Messages).To(HaveLen(4))
			Expect(req.Messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(req.Messages[0].Content).To(ContainSubstring("Software Engineer"))
			Expect(req.Messages[0].Content).To(ContainSubstring("Senior"))
			Expect(req.Messages[1]).To(Equal(llm.Message{Role: llm.RoleUser, Content: "first answer"}))
			Expect(req.Messages[2]).To(Equal(llm.Message{Role: llm.RoleAssistant, Content: "first follow-up"}))
			Expect(req.Messages[3]).To(Equal(llm.Message{Role: llm.RoleUser, Content: "second answer"}))
		})

		It("pins the sampling parameters", func() {
			_, _, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "hello", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			req := model.requests[0]
			Expect(req.Model).To(Equal("llama-3.1-8b-instant"))
			Expect(*req.Temperature).To(Equal(0.7))
			Expect(*req.MaxTokens).To(Equal(900))
		})

		It("surfaces model failures without growing the transcript", func() {
			model.err = errors.New("upstream 500")
			transcript := session.Transcript{{UserText: "a", AssistantText: "b"}}

			updated, _, err := controller.ProcessTurn(context.Background(), transcript,
				session.TurnInput{Text: "hello", Config: cfg})

			Expect(err).To(MatchError(ContainSubstring("upstream 500")))
			Expect(updated).To(Equal(transcript))
		})
	})

	Describe("audio input", func() {
		It("transcribes when no text was typed", func() {
			updated, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Clip: clip, Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(transcriber.calls).To(Equal(1))
			Expect(result.UserText).To(Equal("I enjoy working with data."))
			Expect(updated[0].UserText).To(Equal("I enjoy working with data."))
		})

		It("prefers typed text over the recording", func() {
			_, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "typed wins", Clip: clip, Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(transcriber.calls).To(BeZero())
			Expect(result.UserText).To(Equal("typed wins"))
		})

		It("turns a transcription failure into a diagnostic message and keeps going", func() {
			transcriber.err = errors.New("connection reset")

			updated, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Clip: clip, Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.TranscriptionErr).To(MatchError("connection reset"))
			Expect(result.UserText).To(Equal("[Transcription error: connection reset]"))
			Expect(updated).To(HaveLen(1))
			Expect(updated[0].UserText).To(Equal("[Transcription error: connection reset]"))
			Expect(model.requests).To(HaveLen(1))
		})

		It("fails when audio arrives with no transcriber wired in", func() {
			bare, err := session.NewController(model, "m", nil, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			_, result, err := bare.ProcessTurn(context.Background(), nil,
				session.TurnInput{Clip: clip, Config: cfg})

			// The missing collaborator surfaces the same way a failed
			// transcription does.
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TranscriptionErr).To(MatchError(session.ErrNoTranscriber))
		})
	})

	Describe("the wrap-up handshake", func() {
		offer := session.Transcript{
			{UserText: "I streamlined our reporting.", AssistantText: "Great. Would you like to wrap up the interview?"},
		}

		BeforeEach(func() {
			model.reply = "==================== FINAL INTERVIEW REPORT ===================="
		})

		It("fires when the offer and the agreement meet", func() {
			updated, result, err := controller.ProcessTurn(context.Background(), offer,
				session.TurnInput{Text: "yes", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.WrapUp).To(BeTrue())

			req := model.requests[0]
			final := req.Messages[len(req.Messages)-1]
			Expect(final.Role).To(Equal(llm.RoleUser))
			Expect(final.Content).To(ContainSubstring("structured final evaluation"))
			Expect(final.Content).To(ContainSubstring("Hiring Recommendation"))

			// History keeps the literal trigger, not the evaluation
			// prompt.
			Expect(updated).To(HaveLen(2))
			Expect(updated[1].UserText).To(Equal("yes"))
		})

		It("ignores casing on both sides", func() {
			shouting := session.Transcript{
				{UserText: "ok", AssistantText: "Let's WRAP UP now?"},
			}

			_, result, err := controller.ProcessTurn(context.Background(), shouting,
				session.TurnInput{Text: "Sure!", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.WrapUp).To(BeTrue())
		})

		It("needs the offer: agreement alone is just an answer", func() {
			questions := session.Transcript{
				{UserText: "hi", AssistantText: "What is a JOIN?"},
			}

			_, result, err := controller.ProcessTurn(context.Background(), questions,
				session.TurnInput{Text: "stop", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.WrapUp).To(BeFalse())
			Expect(model.requests[0].Messages[len(model.requests[0].Messages)-1].Content).To(Equal("stop"))
		})

		It("needs the agreement: the offer alone keeps the interview going", func() {
			_, result, err := controller.ProcessTurn(context.Background(), offer,
				session.TurnInput{Text: "not quite, ask me another question", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.WrapUp).To(BeFalse())
		})

		It("never fires on the first turn", func() {
			_, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "yes", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.WrapUp).To(BeFalse())
		})
	})

	Describe("voice replies", func() {
		It("synthesizes the reply when enabled", func() {
			cfg.VoiceReply = true

			_, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "hello", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(synthesizer.calls).To(Equal(1))
			Expect(result.Speech).To(Equal([]byte("mp3")))
		})

		It("skips synthesis when disabled", func() {
			_, result, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "hello", Config: cfg})

			Expect(err).NotTo(HaveOccurred())
			Expect(synthesizer.calls).To(BeZero())
			Expect(result.Speech).To(BeNil())
		})

		It("treats synthesis failure as fatal for the turn", func() {
			cfg.VoiceReply = true
			synthesizer.err = errors.New("tts unavailable")

			updated, _, err := controller.ProcessTurn(context.Background(), nil,
				session.TurnInput{Text: "hello", Config: cfg})

			Expect(err).To(MatchError(ContainSubstring("tts unavailable")))
			Expect(updated).To(BeEmpty())
		})
	})
})
