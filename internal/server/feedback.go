package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/partyshah/ai-math-tutor/internal/artifacts"
	"github.com/partyshah/ai-math-tutor/internal/feedback"
	"github.com/partyshah/ai-math-tutor/internal/logging"
)

// artifactsImageKind maps the query parameter onto a stored variant;
// anything other than "full" serves the thumbnail.
func artifactsImageKind(value string) artifacts.ImageKind {
	if value == string(artifacts.ImageFull) {
		return artifacts.ImageFull
	}
	return artifacts.ImageThumbnail
}

// handleFeedback serves two operations on one path: multipart requests and
// JSON bodies carrying a messages array generate a presentation report;
// JSON bodies carrying a sessionId persist professor feedback.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleGenerateFeedbackMultipart(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "reading body failed")
		return
	}
	var probe struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if probe.Messages != nil {
		s.handleGenerateFeedbackJSON(w, r)
		return
	}
	s.handleSaveFeedback(w, r)
}

func (s *Server) handleGenerateFeedbackMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	messagesJSON := r.FormValue("messages")
	if messagesJSON == "" {
		s.writeError(w, http.StatusBadRequest, "Messages are required for feedback")
		return
	}
	var messages []chatMessage
	if err := json.Unmarshal([]byte(messagesJSON), &messages); err != nil {
		s.writeError(w, http.StatusBadRequest, "messages must be a JSON array")
		return
	}

	var marks []feedback.TimestampMark
	if timestampsJSON := r.FormValue("slideTimestamps"); timestampsJSON != "" {
		if err := json.Unmarshal([]byte(timestampsJSON), &marks); err != nil {
			s.logger.Warn("unparseable slide timestamps ignored", logging.Error(err))
			marks = nil
		}
	}

	slideCount := 0
	if parsed, ok := atoiOK(r.FormValue("pdfSlideCount")); ok {
		slideCount = parsed
	}

	var recording []byte
	if file, _, err := r.FormFile("recording"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "reading recording failed")
			return
		}
		recording = data
	}

	s.generateFeedback(w, r, generateInput{
		Messages:           messages,
		SelectedAssignment: r.FormValue("selectedAssignment"),
		ImageSessionID:     r.FormValue("pdfSessionId"),
		SlideCount:         slideCount,
		Marks:              marks,
		Recording:          recording,
	})
}

func (s *Server) handleGenerateFeedbackJSON(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages           []chatMessage `json:"messages"`
		SelectedAssignment string        `json:"selectedAssignment"`
		PDFSessionID       string        `json:"pdfSessionId"`
		PDFSlideCount      flexInt       `json:"pdfSlideCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Messages are required for feedback")
		return
	}
	slideCount := 0
	if body.PDFSlideCount.value != nil {
		slideCount = *body.PDFSlideCount.value
	}
	s.generateFeedback(w, r, generateInput{
		Messages:           body.Messages,
		SelectedAssignment: body.SelectedAssignment,
		ImageSessionID:     body.PDFSessionID,
		SlideCount:         slideCount,
	})
}

type generateInput struct {
	Messages           []chatMessage
	SelectedAssignment string
	ImageSessionID     string
	SlideCount         int
	Marks              []feedback.TimestampMark
	Recording          []byte
}

func (s *Server) generateFeedback(w http.ResponseWriter, r *http.Request, input generateInput) {
	var deckText string
	if input.SelectedAssignment != "" {
		text, err := s.decks.ExtractText(r.Context(), input.SelectedAssignment)
		if err != nil {
			s.logger.Warn("deck text unavailable for feedback",
				logging.String("assignment", input.SelectedAssignment),
				logging.Error(err))
		} else {
			deckText = text
		}
	}

	conversation := make([]feedback.ConversationTurn, 0, len(input.Messages))
	for _, message := range input.Messages {
		conversation = append(conversation, feedback.ConversationTurn{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	report, err := s.pipeline.Generate(r.Context(), feedback.GenerateRequest{
		Conversation:   conversation,
		DeckText:       deckText,
		Recording:      input.Recording,
		Marks:          input.Marks,
		SlideCount:     input.SlideCount,
		ImageSessionID: feedback.ImageSessionID(input.ImageSessionID),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSlideImage(w http.ResponseWriter, r *http.Request) {
	slide, ok := s.pathID(w, r, "slide")
	if !ok {
		return
	}
	kind := artifactsImageKind(r.URL.Query().Get("type"))
	path := s.artifacts.SlideImagePath(r.PathValue("session"), int(slide), kind)
	if path == "" {
		s.writeError(w, http.StatusNotFound, "Slide image not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (s *Server) handleAudioSegment(w http.ResponseWriter, r *http.Request) {
	slide, ok := s.pathID(w, r, "slide")
	if !ok {
		return
	}
	path := s.artifacts.AudioSegmentPath(r.PathValue("session"), int(slide))
	if path == "" {
		s.writeError(w, http.StatusNotFound, "Audio segment not found")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	result, err := s.sweeper.Sweep(s.maxAge)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":                "Cleanup completed",
		"audio_sessions_removed": result.AudioSessionsRemoved,
		"image_sessions_removed": result.ImageSessionsRemoved,
	})
}
