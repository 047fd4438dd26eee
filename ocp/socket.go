package ocp

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// transport is the minimal send/receive surface Ocp needs from a netlink
// socket. Satisfied by *genlSocket against the real kernel, and by a fake
// in tests, the same split the teacher draws between inetdiag's raw
// syscalls and the higher-level parsing that consumes them.
type transport interface {
	Send(msg []byte) error
	Recv(buf []byte) (int, error)
	Close() error
}

// genlSocket is a single NETLINK_GENERIC socket bound to the current
// process's port id. Every send and receive on it must hold mu: a socket
// is not safe for concurrent use from two goroutines issuing independent
// requests, though it is safe for one goroutine to send while another
// polls (S_KD's use case).
type genlSocket struct {
	fd  int
	mu  sync.Mutex
	pid uint32
}

func newGenlSocket() (*genlSocket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_GENERIC)
	if err != nil {
		return nil, fmt.Errorf("ocp: socket: %w", err)
	}
	sa := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ocp: bind: %w", err)
	}
	got, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ocp: getsockname: %w", err)
	}
	nl, ok := got.(*unix.SockaddrNetlink)
	if !ok {
		unix.Close(fd)
		return nil, fmt.Errorf("ocp: unexpected sockaddr type %T", got)
	}
	return &genlSocket{fd: fd, pid: nl.Pid}, nil
}

func (s *genlSocket) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sa := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	return unix.Sendto(s.fd, msg, 0, sa)
}

func (s *genlSocket) Recv(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, err := unix.Recvfrom(s.fd, buf, 0)
	return n, err
}

func (s *genlSocket) setNonblocking(v bool) error {
	return unix.SetNonblock(s.fd, v)
}

func (s *genlSocket) Close() error {
	return unix.Close(s.fd)
}
