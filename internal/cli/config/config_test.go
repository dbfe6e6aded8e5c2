package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output != "q" {
		t.Errorf("Output = %q, want %q", cfg.Output, "q")
	}
	if cfg.Profile != DefaultProfileName {
		t.Errorf("Profile = %q, want %q", cfg.Profile, DefaultProfileName)
	}
	p, ok := cfg.Profiles[DefaultProfileName]
	if !ok {
		t.Fatal("default profile missing")
	}
	if p.Host != "localhost" || p.Port != 5010 || p.Transport != "tcp" {
		t.Errorf("default profile = %+v", p)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !filepath.IsAbs(path) {
		t.Errorf("DefaultConfigPath() = %q, want absolute", path)
	}
	if !strings.HasSuffix(path, filepath.Join(".qipc", "cli.yaml")) {
		t.Errorf("DefaultConfigPath() = %q, want .qipc/cli.yaml suffix", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output != "q" {
		t.Errorf("Output = %q, want default", cfg.Output)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cli.yaml")

	cfg := Default()
	cfg.Output = "table"
	cfg.SetProfile("prod", Profile{Transport: "tls", Host: "db.example.com", Port: 5001, User: "ops", Password: "pw"})
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Output != "table" {
		t.Errorf("Output = %q, want table", loaded.Output)
	}
	p, err := loaded.Resolve("prod")
	if err != nil {
		t.Fatalf("Resolve(prod) error = %v", err)
	}
	if p.Host != "db.example.com" || p.Port != 5001 || p.Transport != "tls" || p.Credentials() != "ops:pw" {
		t.Errorf("prod profile = %+v", p)
	}
	if _, ok := loaded.Profiles[DefaultProfileName]; !ok {
		t.Error("default profile lost on reload")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("QIPC_CLI_OUTPUT", "json")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
}

func TestResolve(t *testing.T) {
	cfg := &CLIConfig{
		Profile: "dev",
		Profiles: map[string]Profile{
			"dev":     {Host: "devbox"},
			"partial": {Port: 6000},
		},
	}

	tests := []struct {
		name     string
		profile  string
		wantHost string
		wantPort int
		wantErr  error
	}{
		{"configured default", "", "devbox", 5010, nil},
		{"partial fills defaults", "partial", "localhost", 6000, nil},
		{"implicit default", DefaultProfileName, "localhost", 5010, nil},
		{"unknown", "nope", "", 0, ErrUnknownProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := cfg.Resolve(tt.profile)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if p.Host != tt.wantHost || p.Port != tt.wantPort || p.Transport != "tcp" {
				t.Errorf("Resolve() = %+v", p)
			}
		})
	}
}

func TestProfileNames(t *testing.T) {
	cfg := Default()
	cfg.SetProfile("zeta", Profile{})
	cfg.SetProfile("alpha", Profile{})

	got := strings.Join(cfg.ProfileNames(), ",")
	if got != "alpha,default,zeta" {
		t.Errorf("ProfileNames() = %s", got)
	}
}
