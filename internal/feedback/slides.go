package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/services/llm"
)

// TextGenerator produces one completion from a system instruction and a
// message history. Implemented by llm.Client.
type TextGenerator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

const slidePromptTemplate = `You are evaluating slide %d of a startup pitch presentation. Provide feedback in this exact format:

**Slide %d:**
- Content structuring: [✓/✗] - [Brief analysis of slide content and flow]
- Delivery: [✓/✗] - [Analysis based on audio transcript for pacing, clarity, filler words]
- Impromptu response: N/A - [This is evaluated in the Q&A section]
- Composure: N/A - [This is evaluated in the Q&A section]

Use ✓ for met criteria, ✗ for not met, and N/A when not applicable. Be specific and actionable.
For slide feedback, focus ONLY on the slide content and delivery. Q&A aspects are evaluated separately.`

// GenerateSlideFeedback asks the model to evaluate one slide's content and
// delivery. Q&A dimensions are never judged here. On failure it returns an
// explicit per-slide error block instead of an error so one bad slide never
// blocks the others.
func GenerateSlideFeedback(ctx context.Context, gen TextGenerator, slideNumber int, transcript SlideTranscript, deckText string, logger *slog.Logger) string {
	var system strings.Builder
	fmt.Fprintf(&system, slidePromptTemplate, slideNumber, slideNumber)

	if deckText != "" {
		fmt.Fprintf(&system, "\n\nFULL SLIDE DECK: \"\"\"%s\"\"\"", deckText)
	}
	if transcript.Transcript != "" {
		durationText := ""
		if transcript.EndSec != nil && *transcript.EndSec > transcript.StartSec {
			durationText = fmt.Sprintf("(%.1fs) ", *transcript.EndSec-transcript.StartSec)
		}
		fmt.Fprintf(&system, "\n\nSLIDE %d AUDIO %s: \"\"\"%s\"\"\"", slideNumber, durationText, transcript.Transcript)
	}

	text, err := gen.Complete(ctx, llm.Request{
		System: system.String(),
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf("Analyze slide %d and provide feedback in the specified format.", slideNumber)},
		},
		MaxTokens: 400,
	})
	if err != nil {
		logger.Error("slide feedback generation failed", logging.Int("slide", slideNumber), logging.Error(err))
		return fmt.Sprintf("**Slide %d Feedback:** Error generating feedback for this slide: %v", slideNumber, err)
	}
	return text
}
