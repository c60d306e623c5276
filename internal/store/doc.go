// Package store persists students, tutoring sessions, conversation turns,
// and saved feedback in SQLite.
package store
