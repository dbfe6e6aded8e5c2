package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/qipc-go/internal/core/service"
)

func TestAccountLine(t *testing.T) {
	tests := []struct {
		user    string
		want    string
		wantErr bool
	}{
		{"alice", "alice:" + service.HashPassword("pw"), false},
		{"", "", true},
		{"a:b", "", true},
		{"a\nb", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got, err := AccountLine(tt.user, "pw")
			if (err != nil) != tt.wantErr {
				t.Fatalf("AccountLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("AccountLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccountHash(t *testing.T) {
	out, _, err := runApp(t, "", "account", "hash", "mattew", "oracle")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "mattew:431364b6450fc47ccdbf6a2205dfdb1baeb79412\n" {
		t.Errorf("output = %q", out)
	}
}

func TestAccountAddVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passwd")

	if _, _, err := runApp(t, "", "account", "add", path, "alice", "secret"); err != nil {
		t.Fatalf("add alice error = %v", err)
	}
	if _, _, err := runApp(t, "", "account", "add", path, "bob", "hunter2"); err != nil {
		t.Fatalf("add bob error = %v", err)
	}
	if _, _, err := runApp(t, "", "account", "add", path, "alice", "again"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate add error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("file has %d lines, want 2", lines)
	}

	out, _, err := runApp(t, "", "account", "verify", path, "bob", "hunter2")
	if err != nil || out != "ok\n" {
		t.Errorf("verify bob = %q, %v", out, err)
	}
	if _, _, err := runApp(t, "", "account", "verify", path, "bob", "wrong"); err == nil {
		t.Error("verify with wrong password succeeded")
	}
}

func TestAccountCommand_Usage(t *testing.T) {
	tests := [][]string{
		{"account", "hash", "only-user"},
		{"account", "add", "file", "user"},
		{"account", "verify"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, _, err := runApp(t, "", args...); err == nil {
				t.Error("expected usage error")
			}
		})
	}
}
