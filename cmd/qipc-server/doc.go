// Package main provides the entry point for qipc-server.
//
// qipc-server is a listening kdb+ IPC peer. It accepts q and qipc clients
// over TCP, TLS and abstract unix sockets, authenticates them against a
// user:sha1 account file, answers sync requests from its function table and
// journals async messages.
//
// Usage:
//
//	qipc-server [flags]
//	qipc-server -config /etc/qipc/server.yaml
//	qipc-server -config server.yaml -check
//
// Settings come from the YAML file, then KDBPLUS_ACCOUNT_FILE,
// KDBPLUS_TLS_KEY_FILE, KDBPLUS_TLS_KEY_FILE_SECRET and QUDSPATH, then
// QIPC_* variables (QIPC_SERVER_TCP_ADDR sets server.tcp.addr).
package main
