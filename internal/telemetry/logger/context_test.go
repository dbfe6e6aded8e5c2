package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if SessionIDFromContext(ctx) != "" || PeerFromContext(ctx) != "" {
		t.Fatal("empty context should carry no session attributes")
	}

	ctx = WithSessionID(ctx, "01J9ZB6Q7W3E0N5V1K2M4R8T6Y")
	ctx = WithPeer(ctx, "127.0.0.1:53011")
	if got := SessionIDFromContext(ctx); got != "01J9ZB6Q7W3E0N5V1K2M4R8T6Y" {
		t.Errorf("SessionIDFromContext() = %q", got)
	}
	if got := PeerFromContext(ctx); got != "127.0.0.1:53011" {
		t.Errorf("PeerFromContext() = %q", got)
	}
}

func TestContextHandler(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		wantID   any
		wantPeer any
	}{
		{
			name:     "session and peer",
			ctx:      WithPeer(WithSessionID(context.Background(), "s1"), "10.0.0.7:4100"),
			wantID:   "s1",
			wantPeer: "10.0.0.7:4100",
		},
		{
			name:   "session only",
			ctx:    WithSessionID(context.Background(), "s2"),
			wantID: "s2",
		},
		{
			name: "none",
			ctx:  context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			l.With("component", "qserver").Slog().InfoContext(tt.ctx, "dispatch")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("bad JSON %q: %v", buf.String(), err)
			}
			if entry["session_id"] != tt.wantID {
				t.Errorf("session_id = %v, want %v", entry["session_id"], tt.wantID)
			}
			if entry["peer"] != tt.wantPeer {
				t.Errorf("peer = %v, want %v", entry["peer"], tt.wantPeer)
			}
			if entry["component"] != "qserver" {
				t.Errorf("component = %v, want qserver", entry["component"])
			}
		})
	}
}
