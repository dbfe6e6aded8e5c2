package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	sessionIDKey contextKey = "qipc.session_id"
	peerKey      contextKey = "qipc.peer"
)

// WithSessionID tags ctx with an IPC session id. Records logged with the
// context carry it as session_id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithPeer tags ctx with the remote address of a session.
func WithPeer(ctx context.Context, peer string) context.Context {
	return context.WithValue(ctx, peerKey, peer)
}

// PeerFromContext returns the peer address, or "".
func PeerFromContext(ctx context.Context) string {
	p, _ := ctx.Value(peerKey).(string)
	return p
}

// contextHandler copies session attributes from the record context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := SessionIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("session_id", id))
		}
		if peer := PeerFromContext(ctx); peer != "" {
			r.AddAttrs(slog.String("peer", peer))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
