// Package llm wraps the chat-completion API used for tutoring replies and
// pitch feedback. The client retries transient failures with exponential
// backoff, honours Retry-After headers, and exposes test seams for the HTTP
// client and retry sleeps.
package llm
