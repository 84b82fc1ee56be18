package connection

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"
)

// ErrNotSocket is returned when the configured socket path is some other
// kind of file.
var ErrNotSocket = errors.New("not a unix socket")

// SocketDialer returns a DialContext that always connects to path,
// whatever address the HTTP transport asks for.
func SocketDialer(path string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 5 * time.Second}
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		return d.DialContext(ctx, "unix", path)
	}
}

// CheckSocket reports whether path exists and is a unix socket.
func CheckSocket(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("gateway socket %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("gateway socket %s: %w", path, err)
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("gateway socket %s: %w", path, ErrNotSocket)
	}
	return nil
}
