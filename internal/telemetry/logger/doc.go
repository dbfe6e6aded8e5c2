// Package logger provides structured logging built on log/slog.
//
//   - logger.go: handler setup, per-logger level and the process default
//   - context.go: session id and peer carried on contexts into records
//   - redact.go: masking of passwords and connection credentials
//
// Components that only need to log take a *slog.Logger; Logger.Slog hands
// them one that shares this package's handler and redaction.
package logger
