// Package buildinfo exposes version information for littlesteps-cli.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/littlesteps-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not, the module version and VCS revision recorded by the
// Go toolchain are used where available.
package buildinfo
