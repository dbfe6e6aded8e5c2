// Package tlsroots loads TLS material for IPC transports.
//
//   - roots.go: client trust roots (system pool or a CA file)
//   - identity.go: listener identity from a PKCS#12 bundle or a PEM pair
//   - watcher.go: identity hot-reload via fsnotify
package tlsroots
