// Package artifacts manages per-session storage for generated audio segments
// and rendered slide images. Audio sessions belong to feedback generation
// runs; image sessions belong to deck uploads. Both are append-only per
// session and reclaimed by an age-based sweep.
package artifacts
