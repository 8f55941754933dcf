//go:build !windows

package player

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// newSocketPath returns a fresh IPC socket path inside its own private temp dir, plus the dir to remove afterwards
func newSocketPath() (path string, dir string, err error) {
	dir, err = os.MkdirTemp("", "omniplayer-mpv-*")
	if err != nil {
		return "", "", fmt.Errorf("creating socket dir: %w", err)
	}
	return filepath.Join(dir, "mpv.sock"), dir, nil
}

// dialMPV connects to the Unix domain socket mpv listens on
func dialMPV(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
