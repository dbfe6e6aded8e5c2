// Package main provides the entry point for qipc-cli.
//
// qipc-cli talks to any q IPC peer, a kdb+ process or qipc-server:
//
//   - one-shot sync queries and async messages
//   - an interactive REPL
//   - journal inspection
//   - account file maintenance
//   - named connection profiles
//
// Usage:
//
//	qipc-cli -H localhost -p 5010 -u alice --password secret query 'til 5'
//	qipc-cli query .qipc.echo 42
//	qipc-cli --output table query .qipc.sessions
//	qipc-cli --profile prod repl
//	qipc-cli journal replay /var/lib/qipc/async.journal
//	qipc-cli account hash alice secret >> passwd
package main
