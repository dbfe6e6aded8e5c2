package service

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/infra/confloader"
)

// HashPassword returns the lowercase hex SHA-1 of password, the form stored
// in account files.
func HashPassword(password string) string {
	h := sha1.Sum([]byte(password))
	return hex.EncodeToString(h[:])
}

// Accounts is an immutable username to password-hash table.
type Accounts map[string]string

// ParseAccounts reads `user:sha1hex` lines. Blank lines and a trailing CR are
// ignored; anything else malformed fails with the line number.
func ParseAccounts(r io.Reader) (Accounts, error) {
	accounts := make(Accounts)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		user, hash, ok := strings.Cut(text, ":")
		switch {
		case !ok:
			return nil, domain.ErrCredentialFormat.Detailf("line %d: missing ':'", line)
		case user == "":
			return nil, domain.ErrCredentialFormat.Detailf("line %d: empty username", line)
		case !validHash(hash):
			return nil, domain.ErrCredentialFormat.Detailf("line %d: password hash must be 40 hex digits", line)
		}
		accounts[user] = strings.ToLower(hash)
	}
	if err := sc.Err(); err != nil {
		return nil, domain.ErrCredentialFormat.Detailf("line %d", line+1).WithCause(err)
	}
	return accounts, nil
}

func validHash(s string) bool {
	if len(s) != 2*sha1.Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// CredentialStore verifies handshake credentials against the current
// Accounts snapshot. Reload swaps the snapshot atomically.
type CredentialStore struct {
	path     string
	accounts atomic.Pointer[Accounts]
	logger   *slog.Logger
}

// NewCredentialStore serves a fixed table.
func NewCredentialStore(accounts Accounts) *CredentialStore {
	s := &CredentialStore{logger: slog.Default()}
	if accounts == nil {
		accounts = Accounts{}
	}
	s.accounts.Store(&accounts)
	return s
}

// LoadCredentialStore reads the account file at path.
func LoadCredentialStore(path string, logger *slog.Logger) (*CredentialStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CredentialStore{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the account file, or "" for a fixed table.
func (s *CredentialStore) Path() string { return s.path }

// Reload re-reads the account file. On failure the previous snapshot stays.
func (s *CredentialStore) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read account file %s: %w", s.path, err)
	}
	accounts, err := ParseAccounts(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse account file %s: %w", s.path, err)
	}
	s.accounts.Store(&accounts)
	s.logger.Info("accounts loaded", "file", s.path, "users", len(accounts))
	return nil
}

// Watch reloads the store whenever w reports a change to its file.
func (s *CredentialStore) Watch(w *confloader.Watcher) error {
	if s.path == "" {
		return nil
	}
	if err := w.Watch(s.path); err != nil {
		return err
	}
	path := filepath.Clean(s.path)
	w.OnChange(func(changed string) {
		if changed != path {
			return
		}
		if err := s.Reload(); err != nil {
			s.logger.Error("account reload failed", "error", err)
		}
	})
	return nil
}

// Verify reports whether password matches user's stored hash. Unknown users
// cost the same comparison as known ones.
func (s *CredentialStore) Verify(user, password string) bool {
	accounts := *s.accounts.Load()
	want, ok := accounts[user]
	if !ok {
		want = strings.Repeat("0", 2*sha1.Size)
	}
	got := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1 && ok
}

// Has reports whether user has an account.
func (s *CredentialStore) Has(user string) bool {
	_, ok := (*s.accounts.Load())[user]
	return ok
}

// Users returns the account names in sorted order.
func (s *CredentialStore) Users() []string {
	accounts := *s.accounts.Load()
	users := make([]string, 0, len(accounts))
	for u := range accounts {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Len returns the number of accounts.
func (s *CredentialStore) Len() int {
	return len(*s.accounts.Load())
}
