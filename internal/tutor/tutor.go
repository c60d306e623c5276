package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/services/llm"
)

// Persona selects the system prompt used for a chat exchange.
type Persona string

const (
	PersonaMathTutor Persona = "math_tutor"
	PersonaVCMentor  Persona = "vc_mentor"
)

const (
	maxContextChars    = 15000
	maxTranscriptChars = 8000
	truncationMarker   = "\n\n[...truncated...]"

	chatMaxTokens    = 800
	summaryMaxTokens = 800
)

// TextGenerator produces a completion for a prompt plus message history.
type TextGenerator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Service drives tutoring and mentoring conversations.
type Service struct {
	gen    TextGenerator
	logger *slog.Logger
}

func NewService(gen TextGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{gen: gen, logger: logging.NewComponentLogger(logger, "tutor")}
}

// ChatRequest carries one exchange of a tutoring conversation. DeckText is
// the extracted assignment or pitch-deck text; Transcription is what the
// speaker said while walking through the deck, if a recording accompanied
// the message.
type ChatRequest struct {
	Persona       Persona
	Messages      []ConversationTurn
	DeckText      string
	Transcription string
}

// ConversationTurn is a single message in the dialogue. Roles other than
// "assistant" and "system" are treated as the student speaking.
type ConversationTurn struct {
	Role    string
	Content string
}

// Chat generates the next assistant reply for the conversation.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (string, error) {
	system := buildSystemPrompt(req.Persona, req.DeckText, req.Transcription)
	messages := normalizeMessages(req.Messages)

	s.logger.Debug("generating chat reply",
		logging.String("persona", string(req.Persona)),
		logging.Int("messages", len(messages)),
		logging.Bool("has_deck_context", req.DeckText != ""),
		logging.Bool("has_transcription", req.Transcription != ""))

	reply, err := s.gen.Complete(ctx, llm.Request{
		System:    system,
		Messages:  messages,
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return reply, nil
}

const summaryPrompt = `You are an educational analyst reviewing a tutoring session between an AI math tutor and a student. Based on the conversation, provide a concise summary for the professor covering:

1. Topics covered - What mathematical concepts were discussed
2. Student understanding - How well the student grasped the material
3. Struggles and breakthroughs - Where the student got stuck and what helped
4. Engagement - How actively the student participated and reasoned aloud
5. Recommendations - What the student should work on next

Keep the summary factual and grounded in what actually happened in the conversation.`

// SummarizeSession condenses a full conversation into a report for the
// professor. The dialogue is rendered one turn per line.
func (s *Service) SummarizeSession(ctx context.Context, turns []ConversationTurn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("summarize session: empty conversation")
	}

	var dialogue strings.Builder
	for _, turn := range turns {
		speaker := "Student"
		if turn.Role == "assistant" {
			speaker = "Tutor"
		}
		fmt.Fprintf(&dialogue, "%s: %s\n", speaker, turn.Content)
	}

	summary, err := s.gen.Complete(ctx, llm.Request{
		System: summaryPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: "Here is the session transcript:\n\n" + dialogue.String()},
		},
		Temperature: 0.3,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("session summary: %w", err)
	}
	return summary, nil
}

func buildSystemPrompt(persona Persona, deckText, transcription string) string {
	var prompt strings.Builder
	switch persona {
	case PersonaVCMentor:
		prompt.WriteString(vcMentorPrompt)
		if trimmed := trimToLimit(deckText, maxContextChars); trimmed != "" {
			prompt.WriteString("\n\nCONTEXT: The entrepreneur/founder is working with the following material:\n\n")
			prompt.WriteString(trimmed)
		}
	default:
		prompt.WriteString(mathTutorPrompt)
		if trimmed := trimToLimit(deckText, maxContextChars); trimmed != "" {
			prompt.WriteString("\n\nCONTEXT: The student is working on the following assignment:\n\n")
			prompt.WriteString(trimmed)
		}
	}
	if trimmed := trimToLimit(transcription, maxTranscriptChars); trimmed != "" {
		prompt.WriteString("\n\nPRESENTATION WALKTHROUGH: Here's what the speaker said while walking through their presentation:\n\n")
		prompt.WriteString(trimmed)
	}
	return prompt.String()
}

// trimToLimit caps a context block so the combined prompt stays inside the
// model window. Truncation is marked so the model knows text is missing.
func trimToLimit(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + truncationMarker
}

// normalizeMessages maps conversation turns onto chat roles. Blank roles
// become the student, empty turns are dropped, and an empty history gets a
// single opener so the model always has something to respond to.
func normalizeMessages(turns []ConversationTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		role := turn.Role
		switch role {
		case "assistant", "system":
		default:
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}
	if len(messages) == 0 {
		messages = append(messages, llm.Message{Role: "user", Content: "Let's begin."})
	}
	return messages
}
