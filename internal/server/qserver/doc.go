// Package qserver is the listening peer behind qipc-server.
//
// A Server binds the configured TCP, TLS and unix socket listeners,
// authenticates clients against the account file and serves each session on
// its own goroutine. Sync requests are dispatched to a FunctionTable and
// answered with a response message. Async messages are appended to the
// journal before they are dispatched; their results are discarded.
//
// The optional metrics listener serves /metrics, /health, /ready and
// /sessions through httpserver.
package qserver
