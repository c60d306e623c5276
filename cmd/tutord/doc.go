// Command tutord runs the tutoring backend: an HTTP API serving tutoring
// chat, assignment decks, session persistence for professors, and the
// presentation-feedback pipeline. Maintenance subcommands cover session
// listing, artifact cleanup, and configuration management.
package main
