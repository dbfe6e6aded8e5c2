// Package connection manages the qipc-cli session to a peer.
//
// A Manager remembers the last target and reconnects transparently when the
// session was closed by the peer or by a transport failure.
package connection
