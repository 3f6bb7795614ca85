// Package backend is the typed HTTP client for the chat backend: the
// streaming turn endpoint that feeds the frame decoder, and the simple
// request/response collaborators around it (turn persistence, message
// truncation for edit/regenerate, title generation, token counting, speech
// synthesis, and file upload).
//
// The streaming call classifies failures for the retry coordinator: 4xx
// responses are terminal, 5xx and network-level failures are retryable,
// and an aborted request surfaces as cancellation, never as retryable.
// Collaborator calls run behind a shared breaker so a dead backend fails
// fast instead of queueing doomed requests.
package backend
