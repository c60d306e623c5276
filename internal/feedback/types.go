package feedback

import "time"

// FeedbackSessionID identifies one report generation run. It is minted fresh
// per run and owns any audio segments persisted by that run.
type FeedbackSessionID string

// ImageSessionID identifies the slide-image storage for a deck upload. It is
// stable across every report generated against that upload. Audio and image
// artifacts live in separate namespaces so lookups never collide.
type ImageSessionID string

// TimestampMark is one client-reported slide change: the slide shown and the
// recording offset at which it appeared. Marks are not guaranteed sorted,
// contiguous, or free of revisits.
type TimestampMark struct {
	SlideNumber int     `json:"slideNumber"`
	Timestamp   float64 `json:"timestamp"`
}

// AudioSegment is one cut of the recording attributed to a slide. A nil
// EndSec means the segment runs to the end of the recording.
type AudioSegment struct {
	SlideNumber int
	Path        string
	StartSec    float64
	EndSec      *float64
}

// SlideTranscript is the transcript for one slide's segment. The placeholder
// "Transcription failed" is a valid value, not an error state.
type SlideTranscript struct {
	SlideNumber int
	Transcript  string
	StartSec    float64
	EndSec      *float64
}

// Status is the verdict for one rubric dimension.
type Status string

const (
	StatusMet           Status = "met"
	StatusNotMet        Status = "not_met"
	StatusNotApplicable Status = "not_applicable"
	StatusUnknown       Status = "unknown"
	StatusError         Status = "error"
)

// RubricResult is the verdict and comment for one rubric dimension.
type RubricResult struct {
	Status  Status `json:"status"`
	Comment string `json:"comment"`
}

// SlideRubric holds the four rubric dimensions evaluated per slide. Slide
// generation always marks ImpromptuResponse and Composure not applicable;
// those are judged only from the Q&A dialogue.
type SlideRubric struct {
	ContentStructuring RubricResult `json:"content_structuring"`
	Delivery           RubricResult `json:"delivery"`
	ImpromptuResponse  RubricResult `json:"impromptu_response"`
	Composure          RubricResult `json:"composure"`
}

// QAResult holds the two rubric dimensions judged from the Q&A dialogue.
type QAResult struct {
	ImpromptuResponse RubricResult `json:"impromptu_response"`
	Composure         RubricResult `json:"composure"`
}

// ConversationTurn is one role-tagged message of the pitch dialogue.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReportSlide is one slide entry in the assembled report. AudioURL is nil
// when no per-slide segment was persisted for the slide.
type ReportSlide struct {
	SlideNumber     int         `json:"slide_number"`
	ImageURL        string      `json:"image_url"`
	ImageURLFull    string      `json:"image_url_full"`
	AudioURL        *string     `json:"audio_url"`
	Feedback        SlideRubric `json:"feedback"`
	RawFeedbackText string      `json:"raw_feedback_text"`
}

// ReportMetadata describes how the report was produced.
type ReportMetadata struct {
	GeneratedAt     time.Time `json:"generated_at"`
	SlideCount      int       `json:"slide_count"`
	HasAudio        bool      `json:"has_audio"`
	HasConversation bool      `json:"has_conversation"`
	AudioSplitOK    bool      `json:"audio_splitting_success"`
}

// Report is the complete structured feedback returned for one generation
// run. It is not mutated after assembly; a new run produces a new report
// under a new feedback session id.
type Report struct {
	FeedbackSessionID FeedbackSessionID `json:"session_id"`
	ImageSessionID    ImageSessionID    `json:"pdf_session_id"`
	FeedbackType      string            `json:"feedback_type"`
	Slides            []ReportSlide     `json:"slides"`
	QAFeedback        *QAResult         `json:"qa_feedback"`
	Metadata          ReportMetadata    `json:"metadata"`
}
