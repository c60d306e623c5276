package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/store"
	"github.com/partyshah/ai-math-tutor/internal/tutor"
)

type chatInput struct {
	Messages           []chatMessage
	SelectedAssignment string
	SessionID          *int64
	SlideNumber        *int
	Timestamp          string
	Persona            string
	Audio              []byte
	AudioFilename      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// handleChat persists the student turn (with voice-note transcription when
// one was uploaded), generates the assistant reply, persists it, and returns
// the reply text.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	input, errMessage := s.parseChatRequest(r)
	if errMessage != "" {
		s.writeError(w, http.StatusBadRequest, errMessage)
		return
	}

	var transcription string
	if len(input.Audio) > 0 {
		text, err := s.stt.Transcribe(r.Context(), input.AudioFilename, input.Audio)
		if err != nil {
			s.logger.Error("voice note transcription failed", logging.Error(err))
		} else {
			transcription = text
		}
	}

	studentText := lastStudentContent(input.Messages)
	if transcription != "" {
		studentText = strings.TrimSpace(studentText + "\n\n[Transcription]\n" + transcription)
	}
	if studentText != "" && input.SessionID != nil {
		if _, err := s.store.AddConversation(r.Context(), store.Conversation{
			SessionID:   *input.SessionID,
			Role:        "student",
			Content:     studentText,
			SlideNumber: input.SlideNumber,
			SpokenAt:    input.Timestamp,
		}); err != nil {
			s.logger.Error("persisting student turn failed", logging.Error(err))
		}
	}

	var deckText string
	if input.SelectedAssignment != "" {
		text, err := s.decks.ExtractText(r.Context(), input.SelectedAssignment)
		if err != nil {
			s.logger.Warn("deck context unavailable",
				logging.String("assignment", input.SelectedAssignment),
				logging.Error(err))
		} else {
			deckText = text
		}
	}

	turns := make([]tutor.ConversationTurn, 0, len(input.Messages))
	for _, message := range input.Messages {
		turns = append(turns, tutor.ConversationTurn{Role: message.Role, Content: message.Content})
	}
	reply, err := s.tutor.Chat(r.Context(), tutor.ChatRequest{
		Persona:       chatPersona(input.Persona),
		Messages:      turns,
		DeckText:      deckText,
		Transcription: transcription,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if reply != "" && input.SessionID != nil {
		if _, err := s.store.AddConversation(r.Context(), store.Conversation{
			SessionID:   *input.SessionID,
			Role:        "assistant",
			Content:     reply,
			SlideNumber: input.SlideNumber,
		}); err != nil {
			s.logger.Error("persisting assistant turn failed", logging.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// parseChatRequest accepts both plain JSON bodies and multipart forms with an
// optional audio part. It returns a user-facing message on validation
// failure.
func (s *Server) parseChatRequest(r *http.Request) (chatInput, string) {
	var input chatInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return input, "invalid multipart form"
		}
		messagesJSON := r.FormValue("messages")
		if messagesJSON == "" {
			return input, "Messages are required"
		}
		if err := json.Unmarshal([]byte(messagesJSON), &input.Messages); err != nil {
			return input, "messages must be a JSON array"
		}
		input.SelectedAssignment = r.FormValue("selectedAssignment")
		input.Timestamp = r.FormValue("timestamp")
		input.Persona = r.FormValue("persona")
		input.SessionID = parseOptionalInt64(r.FormValue("sessionId"))
		input.SlideNumber = parseOptionalInt(r.FormValue("slideNumber"))

		if file, header, err := r.FormFile("audio"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return input, "reading audio upload failed"
			}
			input.Audio = data
			input.AudioFilename = header.Filename
		}
	} else {
		var body struct {
			Messages           []chatMessage `json:"messages"`
			SelectedAssignment string        `json:"selectedAssignment"`
			SessionID          flexInt       `json:"sessionId"`
			SlideNumber        flexInt       `json:"slideNumber"`
			Timestamp          string        `json:"timestamp"`
			Persona            string        `json:"persona"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return input, "invalid JSON body"
		}
		input.Messages = body.Messages
		input.SelectedAssignment = body.SelectedAssignment
		input.Timestamp = body.Timestamp
		input.Persona = body.Persona
		if body.SessionID.value != nil {
			id := int64(*body.SessionID.value)
			input.SessionID = &id
		}
		input.SlideNumber = body.SlideNumber.value
	}

	if len(input.Messages) == 0 {
		return input, "Messages (array) are required"
	}
	if input.SessionID == nil {
		return input, "sessionId is required"
	}
	return input, ""
}

func chatPersona(value string) tutor.Persona {
	if value == string(tutor.PersonaMathTutor) {
		return tutor.PersonaMathTutor
	}
	return tutor.PersonaVCMentor
}

// lastStudentContent returns the content of the most recent user turn.
func lastStudentContent(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		switch messages[i].Role {
		case "user", "student":
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

func parseOptionalInt64(value string) *int64 {
	parsed, ok := atoiOK(value)
	if !ok {
		return nil
	}
	v := int64(parsed)
	return &v
}

func parseOptionalInt(value string) *int {
	parsed, ok := atoiOK(value)
	if !ok {
		return nil
	}
	return &parsed
}
