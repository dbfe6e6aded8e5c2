// Package buildinfo exposes version data injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/qipc-go/internal/infra/buildinfo.Version=1.0.0"
//
// Both qipc-server and qipc-cli report it through --version and the
// .qipc.version server function.
package buildinfo
