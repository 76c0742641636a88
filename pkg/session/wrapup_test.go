package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/prepmate/prepmate/pkg/session"
)

var _ = Describe("Wrap-up detection", func() {
	Describe("OfferedStop", func() {
		It("matches each stop-offer phrase", func() {
			for _, text := range []string{
				"Would you like to wrap up the interview?",
				"We can stop here if you prefer.",
				"Shall we end the interview now?",
				"Do you want to stop?",
			} {
				Expect(session.OfferedStop(text)).To(BeTrue(), text)
			}
		})

		It("ignores casing", func() {
			Expect(session.OfferedStop("Let's WRAP UP now?")).To(BeTrue())
		})

		It("does not fire on ordinary questions", func() {
			Expect(session.OfferedStop("Tell me about a project you led.")).To(BeFalse())
		})
	})

	Describe("AgreedStop", func() {
		It("matches agreement keywords", func() {
			for _, text := range []string{
				"yes", "Okay!", "ok", "Sure!", "let's wrap it",
				"wrap up please", "stop", "end", "finish", "I am done", "done",
			} {
				Expect(session.AgreedStop(text)).To(BeTrue(), text)
			}
		})

		It("does not fire on a regular answer", func() {
			Expect(session.AgreedStop("I would refactor the pipeline first.")).To(BeFalse())
		})
	})
})
