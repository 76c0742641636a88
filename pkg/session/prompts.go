package session

import (
	"fmt"

	"github.com/prepmate/prepmate/pkg/llm"
)

const systemPromptTemplate = `You are an Interview Practice Partner AI.

- Conduct mock interviews for the chosen role: %s
- Adapt difficulty to experience level: %s
- Ask ONE specific question at a time.
- Ask realistic follow-up questions.
- Do NOT give feedback unless the user ends the interview.`

// finalEvaluationPrompt replaces the user's message on the closing
// turn. The section layout is a contract on the model's output and is
// rendered to the user verbatim, never parsed.
const finalEvaluationPrompt = `The interview is now over. Provide a structured final evaluation.

FORMAT EXACTLY LIKE THIS:

====================
FINAL INTERVIEW REPORT
====================

**Overall Summary (3-4 sentences)**
- Provide a brief overview of the candidate's performance.

--------------------
**Ratings (1-10 scale)**
- Communication Skills: X/10
- Technical Ability: X/10
- Problem-Solving: X/10
- Confidence: X/10
- Domain Knowledge: X/10

--------------------
**Strengths**
- Bullet point strengths
- Based on their answers

--------------------
**Weaknesses / Areas For Improvement**
- Bullet points
- Actionable improvements

--------------------
**Recommended Preparation Plan**
- 3-5 items the candidate should do to improve
- Include tools, courses, or habits

--------------------
**Hiring Recommendation**
Choose exactly one:
- Strong Yes
- Yes
- Maybe
- No`

// SystemPrompt renders the interviewer framing for the given config.
func SystemPrompt(cfg Config) string {
	return fmt.Sprintf(systemPromptTemplate, cfg.Role, cfg.Level)
}

// BuildMessages reconstructs the full message list for one model call:
// the system prompt, the transcript replayed as alternating user and
// assistant messages, then the current message.
func BuildMessages(cfg Config, transcript Transcript, current string) []llm.Message {
	messages := make([]llm.Message, 0, 2*len(transcript)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt(cfg)})
	for _, turn := range transcript {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.UserText},
			llm.Message{Role: llm.RoleAssistant, Content: turn.AssistantText},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: current})
}
