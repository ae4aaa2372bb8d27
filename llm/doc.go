// Package llm provides the model-backend collaborator for the codeact
// agent loop: a provider-agnostic client that wraps gollm behind a narrow
// blocking request/response contract.
//
// The agent loop only needs Complete(messages) -> (content, tokens used).
// Everything else in this package exists to make that call reliable:
// provider routing, middleware, retry with exponential backoff, and a
// typed error taxonomy that distinguishes retryable from fatal failures.
//
// Retry policy lives here, not in the loop. The loop treats a returned
// error as fatal; whatever retrying is appropriate happens inside the
// client via the retry middleware.
package llm
