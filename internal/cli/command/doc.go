// Package command provides the qipc-cli command tree.
//
// Commands are defined with urfave/cli/v2:
//
//   - root.go: App, global flags, target resolution
//   - query.go: query and async
//   - repl.go: interactive mode
//   - journal.go: journal inspection
//   - account.go: account file lines
//   - config.go: CLI profiles
//
// Every command writes to c.App.Writer so it can be exercised in tests.
package command
