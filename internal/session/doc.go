// Package session runs the IPC protocol over a transport connection.
//
// A Session is created by Connect on the client side, or by a Listener on
// the server side once the credential handshake succeeds. It moves through
//
//	Disconnected -> Handshaking -> Open -> Closing -> Closed
//
// and never leaves Closed. Any connection or protocol failure while reading
// or writing closes the session; ordering violations detected before any
// byte is written leave it Open.
//
// Writers are serialised so async messages keep call order, and at most one
// SendSync may be waiting for its response at a time.
package session
