// Package stt wraps a Whisper-compatible speech-to-text API. Audio files are
// uploaded as multipart form data and the plain transcript text is returned.
package stt
