// Package httpserver serves the qipc-server operational endpoints:
// Prometheus metrics, liveness, readiness and a JSON view of live sessions.
//
// Every route runs Recover, RequestID, an optional per-IP RateLimit and an
// optional Audit. /sessions additionally passes NetworkACL, which shares
// service.Allowlist with IPC handshake admission.
package httpserver
