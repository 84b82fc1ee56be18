// Package logger provides structured logging for the Little Steps client.
//
//   - logger.go: slog handler setup and level control
//   - context.go: context-carried logger and request IDs
//   - redact.go: masking of bearer tokens, JWTs and credential fields
//
// Access and refresh tokens pass through almost every log call site in the
// gateway client, so redaction is applied in the handler rather than at the
// call sites.
package logger
