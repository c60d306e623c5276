package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/partyshah/ai-math-tutor/internal/deck"
	"github.com/partyshah/ai-math-tutor/internal/logging"
)

func atoiOK(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.decks.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if assignments == nil {
		assignments = []deck.Assignment{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

func (s *Server) handleAssignmentFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.decks.Path(r.PathValue("filename"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (s *Server) handleAssignmentSlides(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	var body struct {
		StartSlide flexInt `json:"start_slide"`
		EndSlide   flexInt `json:"end_slide"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.StartSlide.value == nil || body.EndSlide.value == nil {
		s.writeError(w, http.StatusBadRequest, "start_slide and end_slide are required")
		return
	}
	start, end := *body.StartSlide.value, *body.EndSlide.value

	focused, err := s.decks.ExtractSlidesRange(r.Context(), filename, start, end)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Could not extract slide content")
		return
	}
	full, err := s.decks.ExtractText(r.Context(), filename)
	if err != nil {
		s.logger.Warn("full deck text unavailable",
			logging.String("assignment", filename), logging.Error(err))
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"slide_range":     fmt.Sprintf("%d-%d", start, end),
		"focused_content": focused,
		"full_content":    full,
	})
}

// handleProcessUpload stores an uploaded deck, renders its slide images, and
// reports the detected page count. Image rendering failures degrade the
// response instead of failing it; the deck itself is still usable.
func (s *Server) handleProcessUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()
	if !strings.HasSuffix(header.Filename, ".pdf") {
		s.writeError(w, http.StatusBadRequest, "File must be a PDF")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "reading upload failed")
		return
	}

	sessionID := uuid.NewString()
	storedName, err := s.decks.SaveUpload(sessionID, header.Filename, data)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pdfPath, err := s.decks.Path(storedName)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var slides []int
	imagesProcessed := false
	if destDir, err := s.artifacts.ImageSessionDir(sessionID); err != nil {
		s.logger.Error("image session dir failed", logging.Error(err))
	} else if rendered, err := s.decks.RenderSlideImages(r.Context(), pdfPath, destDir); err != nil {
		s.logger.Warn("slide image rendering unavailable", logging.Error(err))
	} else {
		slides = rendered
		imagesProcessed = len(rendered) > 0
	}

	slideCount := len(slides)
	if slideCount == 0 {
		if pages, err := s.decks.PageCount(r.Context(), pdfPath); err != nil {
			s.logger.Warn("page count detection failed", logging.Error(err))
			slideCount = 4
		} else {
			slideCount = pages
		}
		slides = make([]int, 0, slideCount)
		for page := 1; page <= slideCount; page++ {
			slides = append(slides, page)
		}
	}

	message := "PDF uploaded successfully"
	if imagesProcessed {
		message += " with slide images"
	} else {
		message += " (images unavailable - install poppler for slide images)"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id":       sessionID,
		"slide_count":      slideCount,
		"slides":           slides,
		"filename":         storedName,
		"images_processed": imagesProcessed,
		"message":          message,
	})
}
