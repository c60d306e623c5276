package feedback

import (
	"fmt"
	"strings"
	"time"
)

// assembleInput carries everything the assembler needs to build one report.
type assembleInput struct {
	FeedbackSessionID FeedbackSessionID
	ImageSessionID    ImageSessionID
	Parts             []string
	SlideMarks        []TimestampMark
	ActualSlideCount  int
	MaxSlideFloor     int
	SavedAudio        map[int]string
	HasAudio          bool
	HasConversation   bool
	SplitSucceeded    bool
	GeneratedAt       time.Time
}

// assembleReport merges the generated feedback blocks into one structured
// report. The Q&A block is recognized by its leading marker; every other
// block is a slide block and maps positionally to the reconciled marks, the
// i-th block belonging to the i-th mark's slide. Slides numbered beyond
// max(floor, actual count) are dropped as a final safety filter. Audio URLs
// reference the feedback session, image URLs the image session.
func assembleReport(in assembleInput) *Report {
	var qaText string
	var slideTexts []string
	for _, part := range in.Parts {
		if strings.HasPrefix(strings.TrimSpace(part), qaBlockPrefix) {
			qaText = part
			continue
		}
		slideTexts = append(slideTexts, part)
	}

	slideCount := in.ActualSlideCount
	if slideCount == 0 {
		if len(in.SlideMarks) > 0 {
			slideCount = len(in.SlideMarks)
		} else {
			slideCount = 1
		}
	}

	report := &Report{
		FeedbackSessionID: in.FeedbackSessionID,
		ImageSessionID:    in.ImageSessionID,
		FeedbackType:      "single",
		Slides:            []ReportSlide{},
		Metadata: ReportMetadata{
			GeneratedAt:     in.GeneratedAt,
			SlideCount:      slideCount,
			HasAudio:        in.HasAudio,
			HasConversation: in.HasConversation,
			AudioSplitOK:    in.SplitSucceeded,
		},
	}
	if len(in.Parts) > 1 {
		report.FeedbackType = "per_slide"
	}

	limit := in.MaxSlideFloor
	if limit < 1 {
		limit = 1
	}
	if in.ActualSlideCount > limit {
		limit = in.ActualSlideCount
	}

	for i, text := range slideTexts {
		slideNumber := i + 1
		if i < len(in.SlideMarks) {
			slideNumber = in.SlideMarks[i].SlideNumber
		}
		if in.ActualSlideCount > 0 && slideNumber > limit {
			continue
		}

		var audioURL *string
		if _, ok := in.SavedAudio[slideNumber]; ok {
			url := fmt.Sprintf("/api/audio-segment/%s/%d", in.FeedbackSessionID, slideNumber)
			audioURL = &url
		}

		report.Slides = append(report.Slides, ReportSlide{
			SlideNumber:     slideNumber,
			ImageURL:        fmt.Sprintf("/api/slide-image/%s/%d?type=thumbnail", in.ImageSessionID, slideNumber),
			ImageURLFull:    fmt.Sprintf("/api/slide-image/%s/%d?type=full", in.ImageSessionID, slideNumber),
			AudioURL:        audioURL,
			Feedback:        ParseSlideFeedback(text),
			RawFeedbackText: text,
		})
	}

	if qaText != "" {
		parsed := ParseQAFeedback(qaText)
		report.QAFeedback = &parsed
	}
	return report
}
