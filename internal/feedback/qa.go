package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/services/llm"
)

// qaBlockPrefix distinguishes the Q&A feedback block from slide blocks
// during assembly.
const qaBlockPrefix = "**Q&A Session"

const qaPrompt = `You are evaluating the Q&A portion of a startup pitch presentation. Focus specifically on impromptu responses and composure under pressure. Provide feedback in this exact format:

**Q&A Session:**
- Impromptu response: [✓/✗] - [Analysis of how well the founder answered questions on the spot with specific evidence]
- Composure: [✓/✗] - [Analysis of how the founder handled challenging or critical questions]

Use ✓ for met criteria, ✗ for not met. Be specific about what questions were asked and how they were handled.`

// qaErrorBlock is returned when Q&A generation fails; it parses to error
// statuses downstream.
const qaErrorBlock = "**Q&A Session:** Error generating Q&A feedback."

// ShouldGenerateQA reports whether Q&A feedback applies: there must be a
// dialogue, and either the reconciler flagged a trailing non-slide section or
// the conversation is long enough to contain real questions.
func ShouldGenerateQA(conversation []ConversationTurn, hasTrailingSection bool) bool {
	if len(conversation) == 0 {
		return false
	}
	return hasTrailingSection || len(conversation) > 2
}

// GenerateQAFeedback asks the model to judge impromptu response and composure
// from the full dialogue. On failure it returns an explicit error block
// instead of an error.
func GenerateQAFeedback(ctx context.Context, gen TextGenerator, conversation []ConversationTurn, logger *slog.Logger) string {
	var dialogue strings.Builder
	for _, turn := range conversation {
		speaker := "STUDENT"
		if turn.Role == "assistant" {
			speaker = "VC"
		}
		fmt.Fprintf(&dialogue, "%s: %s\n", speaker, turn.Content)
	}

	system := qaPrompt + fmt.Sprintf("\n\nQ&A DIALOGUE: \"\"\"%s\"\"\"", strings.TrimSpace(dialogue.String()))
	text, err := gen.Complete(ctx, llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: "user", Content: "Analyze the Q&A session and provide feedback in the specified format."},
		},
		MaxTokens: 300,
	})
	if err != nil {
		logger.Error("qa feedback generation failed", logging.Error(err))
		return qaErrorBlock
	}
	return text
}
