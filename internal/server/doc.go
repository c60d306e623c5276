// Package server exposes the HTTP API: session and conversation persistence
// for professors, tutoring chat, assignment decks, and the presentation
// feedback pipeline with its stored audio and image artifacts.
package server
