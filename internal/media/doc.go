// Package media shells out to ffmpeg and ffprobe for the audio handling the
// feedback pipeline needs: decoding browser recordings to WAV, probing
// durations, and cutting per-slide segments.
package media
