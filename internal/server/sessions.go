package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/store"
)

// flexInt accepts a JSON number, a numeric string, or null. Clients send
// slide counts and scores in all three shapes.
type flexInt struct {
	value *int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		f.value = nil
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %q", raw)
	}
	f.value = &parsed
	return nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StudentName string  `json:"studentName"`
		SlideCount  flexInt `json:"slideCount"`
		PDFURL      string  `json:"pdfUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := strings.TrimSpace(body.StudentName)
	if len(name) < 2 {
		s.writeError(w, http.StatusBadRequest, "studentName (min 2 chars) is required")
		return
	}

	student, err := s.store.CreateStudent(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	session, err := s.store.CreateSession(r.Context(), student.ID, body.SlideCount.value, body.PDFURL)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": session.ID,
		"studentId": student.ID,
	})
}

func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		SlideCount  *flexInt `json:"slideCount"`
		Status      *string  `json:"status"`
		PDFURL      *string  `json:"pdfUrl"`
		CompletedAt *string  `json:"completedAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	update := store.SessionUpdate{
		Status: body.Status,
		PDFURL: body.PDFURL,
	}
	if body.SlideCount != nil {
		update.SlideCount = body.SlideCount.value
	}
	if body.CompletedAt != nil {
		parsed, err := time.Parse(time.RFC3339, *body.CompletedAt)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "completedAt must be an RFC 3339 timestamp")
			return
		}
		update.CompletedAt = &parsed
	}
	if update == (store.SessionUpdate{}) {
		s.writeError(w, http.StatusBadRequest, "No updatable fields provided")
		return
	}

	session, err := s.store.UpdateSession(r.Context(), id, update)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

type conversationPayload struct {
	Role        string  `json:"role"`
	Content     string  `json:"content"`
	SlideNumber flexInt `json:"slideNumber"`
	Timestamp   string  `json:"timestamp"`
}

func (p conversationPayload) toRecord(sessionID int64) store.Conversation {
	return store.Conversation{
		SessionID:   sessionID,
		Role:        strings.TrimSpace(p.Role),
		Content:     strings.TrimSpace(p.Content),
		SlideNumber: p.SlideNumber.value,
		SpokenAt:    p.Timestamp,
	}
}

func (s *Server) handleAddConversations(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		conversationPayload
		Items []conversationPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if body.Items != nil {
		records := make([]store.Conversation, 0, len(body.Items))
		for _, item := range body.Items {
			record := item.toRecord(id)
			if record.Role == "" || record.Content == "" {
				s.writeError(w, http.StatusBadRequest, "Each item requires role and content")
				return
			}
			records = append(records, record)
		}
		count, err := s.store.AddConversationsBulk(r.Context(), records)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]int{"count": count})
		return
	}

	record := body.conversationPayload.toRecord(id)
	if record.Role == "" || record.Content == "" {
		s.writeError(w, http.StatusBadRequest, "role and content are required")
		return
	}
	conv, err := s.store.AddConversation(r.Context(), record)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	sessions, err := s.store.ListSessions(r.Context(), query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.store.GetSessionDetail(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSaveFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID         flexInt `json:"sessionId"`
		OverallFeedback   string  `json:"overallFeedback"`
		PresentationScore flexInt `json:"presentationScore"`
		SlideFeedback     string  `json:"slideFeedback"`
		Strengths         string  `json:"strengths"`
		Improvements      string  `json:"improvements"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.SessionID.value == nil {
		s.writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	fb, err := s.store.SaveFeedback(r.Context(), store.Feedback{
		SessionID:         int64(*body.SessionID.value),
		OverallFeedback:   body.OverallFeedback,
		PresentationScore: body.PresentationScore.value,
		SlideFeedback:     body.SlideFeedback,
		Strengths:         body.Strengths,
		Improvements:      body.Improvements,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("feedback saved",
		logging.Int("session", *body.SessionID.value),
		logging.Bool("scored", body.PresentationScore.value != nil))
	s.writeJSON(w, http.StatusCreated, fb)
}

func (s *Server) handleMarkReviewed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	fb, err := s.store.MarkReviewed(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, fb)
}
