package ocp

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isWouldBlock reports whether err is the "no datagram available right now"
// result of a non-blocking recv, which pollKernel treats as "idle, try
// again" rather than a transport failure.
func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
