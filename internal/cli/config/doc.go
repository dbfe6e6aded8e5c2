// Package config holds qipc-cli settings: the default output format and
// named connection profiles, stored in ~/.qipc/cli.yaml and overridable
// through QIPC_CLI_* environment variables.
package config
