// Package config defines the qipc-server configuration.
//
//   - spec.go: ServerConfig and its sections
//   - default.go: default values
//   - verify.go: validation run before the server starts
//   - sanitize.go: a copy safe to log
//
// Values are loaded through internal/infra/confloader, so every key is
// reachable from the YAML file, a QIPC_ variable, or for a few keys the
// conventional KDBPLUS_* and QUDSPATH variables. Keys never contain
// underscores because the environment mapping turns them into dots.
package config
