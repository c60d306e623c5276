// Package feedback implements the presentation-feedback pipeline: slide
// timestamp reconciliation, audio segmentation, per-segment transcription,
// rubric-based feedback generation, and assembly of the structured report
// returned to callers.
package feedback
