package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/prepmate/prepmate/pkg/llm"
	"github.com/prepmate/prepmate/pkg/llm/openai"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		received *http.Request
		reqBody  map[string]any
		status   int
		respBody string
	)

	BeforeEach(func() {
		status = http.StatusOK
		respBody = `{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1735000000,
			"model": "llama-3.1-8b-instant",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Tell me about a recent project."},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 12, "total_tokens": 54}
		}`

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r
			reqBody = map[string]any{}
			Expect(json.NewDecoder(r.Body).Decode(&reqBody)).To(Succeed())
			w.WriteHeader(status)
			_, _ = w.Write([]byte(respBody))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newRequest := func() *llm.ChatRequest {
		temp := 0.7
		maxTokens := 900
		return &llm.ChatRequest{
			Model: "llama-3.1-8b-instant",
			Messages: []llm.Message{
				llm.NewTextMessage(llm.RoleSystem, "You are an interviewer."),
				llm.NewTextMessage(llm.RoleUser, "Hello"),
			},
			Temperature: &temp,
			MaxTokens:   &maxTokens,
		}
	}

	Describe("New", func() {
		It("requires an upstream URL", func() {
			_, err := openai.New("", "key", nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Complete", func() {
		It("posts to the chat completions path with a bearer token", func() {
			client, err := openai.New(server.URL, "gsk_test", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Complete(context.Background(), newRequest())
			Expect(err).NotTo(HaveOccurred())

			Expect(received.URL.Path).To(Equal("/chat/completions"))
			Expect(received.Header.Get("Authorization")).To(Equal("Bearer gsk_test"))
			Expect(received.Header.Get("Content-Type")).To(Equal("application/json"))
		})

		It("carries model and generation parameters on the wire", func() {
			client, err := openai.New(server.URL, "gsk_test", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Complete(context.Background(), newRequest())
			Expect(err).NotTo(HaveOccurred())

			Expect(reqBody["model"]).To(Equal("llama-3.1-8b-instant"))
			Expect(reqBody["temperature"]).To(BeNumerically("~", 0.7, 1e-9))
			Expect(reqBody["max_tokens"]).To(BeNumerically("==", 900))
			Expect(reqBody["stream"]).To(BeFalse())

			messages, ok := reqBody["messages"].([]any)
			Expect(ok).To(BeTrue())
			Expect(messages).To(HaveLen(2))
			first, ok := messages[0].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(first["role"]).To(Equal("system"))
		})

		It("omits the Authorization header for keyless upstreams", func() {
			client, err := openai.New(server.URL, "", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Complete(context.Background(), newRequest())
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Header.Get("Authorization")).To(BeEmpty())
		})

		It("returns the assistant message and usage", func() {
			client, err := openai.New(server.URL, "gsk_test", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.Complete(context.Background(), newRequest())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message.Role).To(Equal("assistant"))
			Expect(resp.Message.Content).To(Equal("Tell me about a recent project."))
			Expect(resp.StopReason).To(Equal("stop"))
			Expect(resp.Usage.TotalTokens).To(Equal(54))
		})

		It("surfaces non-200 responses with the body", func() {
			status = http.StatusTooManyRequests
			respBody = `{"error": {"message": "rate limited"}}`

			client, err := openai.New(server.URL, "gsk_test", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Complete(context.Background(), newRequest())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("429"))
			Expect(err.Error()).To(ContainSubstring("rate limited"))
		})

		It("errors when no choices are returned", func() {
			respBody = `{"id": "x", "model": "m", "choices": []}`

			client, err := openai.New(server.URL, "gsk_test", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Complete(context.Background(), newRequest())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no choices"))
		})
	})
})
