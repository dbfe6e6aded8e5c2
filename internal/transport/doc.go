// Package transport opens byte streams to and from IPC peers.
//
// Three kinds are supported: plain TCP, TLS over TCP, and Linux abstract
// unix sockets named @<dir>/kx.<port>. A Conn exposes whole-buffer reads and
// writes bound to a context; every failure is reported as a
// domain connection error wrapping the cause.
package transport
