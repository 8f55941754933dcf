//go:build windows

package player

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/npipe.v2"
)

// newSocketPath returns a fresh named pipe path.  Named pipes live in their own namespace, so there is no dir to clean.
func newSocketPath() (path string, dir string, err error) {
	return `\\.\pipe\omniplayer-mpv-` + uuid.NewString(), "", nil
}

// dialMPV connects to the named pipe mpv listens on
func dialMPV(ctx context.Context, path string) (net.Conn, error) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return npipe.DialTimeout(path, timeout)
}
