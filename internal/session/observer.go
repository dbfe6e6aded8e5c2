package session

import (
	"time"

	"github.com/yndnr/qipc-go/internal/protocol/wire"
	"github.com/yndnr/qipc-go/internal/transport"
)

// Direction of a message relative to this process.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Handshake results reported to an Observer.
const (
	HandshakeOK       = "ok"
	HandshakeRejected = "rejected"
	HandshakeFailed   = "failed"
	HandshakeLimited  = "limited"
)

// Observer receives session events, typically to feed metrics. Methods are
// called synchronously and must not block.
type Observer interface {
	SessionOpened(kind transport.Kind)
	SessionClosed(kind transport.Kind)
	Handshake(kind transport.Kind, result string)
	Message(dir Direction, typ wire.MessageType, size int, compressed bool)
	SyncCompleted(d time.Duration)
}

type nopObserver struct{}

func (nopObserver) SessionOpened(transport.Kind)                   {}
func (nopObserver) SessionClosed(transport.Kind)                   {}
func (nopObserver) Handshake(transport.Kind, string)               {}
func (nopObserver) Message(Direction, wire.MessageType, int, bool) {}
func (nopObserver) SyncCompleted(time.Duration)                    {}
