// Package ocp implements the Ovey Control Protocol (spec.md §4.2): two
// generic-netlink sockets between the daemon and the rdma-ovey kernel
// module. S_DK carries daemon-initiated requests and their replies; S_KD
// carries kernel-initiated requests (completions that need daemon
// resolution, and shutdown notices) and the daemon's acknowledgments.
//
// The two sockets are independent: a blocking CreateDevice on S_DK must
// never be held up by, or hold up, the S_KD poll loop. Each socket gets its
// own send+recv mutex instead of one lock shared across the Ocp handle, the
// same way the teacher gives tcp-info's collector and saver their own
// independent locking rather than a package-wide one.
package ocp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ovey-io/ovey/metrics"
)

// Ocp is a connected handle to the rdma-ovey kernel module: one socket for
// daemon-initiated requests (S_DK) and one for kernel-initiated ones
// (S_KD). The zero value is not usable; construct with Connect.
type Ocp struct {
	dk     transport
	kd     transport
	dkSeq  uint32
	pid    uint32
	family uint16

	dkMu sync.Mutex // narrow: guards one send+recv exchange on S_DK only

	kdRequests chan KernelRequest // depth 1, per spec.md's bounded S_KD channel
	kdDone     chan struct{}
	kdErr      atomic.Value // error, set once the poll loop exits
}

// newFromTransports builds an Ocp from two already-connected transports,
// resolving the generic-netlink family independently on each (both ends
// must agree on it, but nothing requires sharing one connection). This
// indirection is what makes Ocp unit-testable without CAP_NET_ADMIN: tests
// supply fake transports instead of real sockets.
func newFromTransports(dk, kd transport, pid uint32) (*Ocp, error) {
	family, err := resolveFamily(dk, 1, pid)
	if err != nil {
		return nil, fmt.Errorf("ocp: resolving family on S_DK: %w", err)
	}
	if kdFamily, err := resolveFamily(kd, 1, pid); err != nil {
		return nil, fmt.Errorf("ocp: resolving family on S_KD: %w", err)
	} else if kdFamily != family {
		return nil, fmt.Errorf("ocp: family id mismatch between sockets (%d vs %d)", family, kdFamily)
	}

	o := &Ocp{
		dk:         dk,
		kd:         kd,
		pid:        pid,
		family:     family,
		kdRequests: make(chan KernelRequest, 1),
		kdDone:     make(chan struct{}),
	}
	return o, nil
}

// Connect opens both OCP sockets against the real kernel module and starts
// the S_KD poll worker. Callers must call Close when done.
func Connect(ctx context.Context) (*Ocp, error) {
	dk, err := newGenlSocket()
	if err != nil {
		return nil, fmt.Errorf("ocp: opening S_DK: %w", err)
	}
	kd, err := newGenlSocket()
	if err != nil {
		dk.Close()
		return nil, fmt.Errorf("ocp: opening S_KD: %w", err)
	}
	if err := kd.setNonblocking(true); err != nil {
		dk.Close()
		kd.Close()
		return nil, fmt.Errorf("ocp: setting S_KD non-blocking: %w", err)
	}

	o, err := newFromTransports(dk, kd, dk.pid)
	if err != nil {
		dk.Close()
		kd.Close()
		return nil, err
	}
	go o.pollKernel(ctx)
	return o, nil
}

// Close waits for the S_KD poll worker to exit, which it does once the ctx
// given to Connect is canceled or a receive fails, then releases both
// sockets. Close does not itself stop the worker.
func (o *Ocp) Close() error {
	<-o.kdDone // pollKernel closes this once it observes ctx.Done or a fatal error; Connect's caller cancels ctx first
	err1 := o.dk.Close()
	err2 := o.kd.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (o *Ocp) nextSeq() uint32 {
	return atomic.AddUint32(&o.dkSeq, 1)
}

// exchangeDK sends one request on S_DK and returns its reply frame. It
// holds dkMu for the whole round trip so two concurrent daemon-initiated
// requests cannot interleave their datagrams, without blocking S_KD's poll
// loop, which never touches dkMu.
func (o *Ocp) exchangeDK(op uint8, attrs []byte) (genlFrame, error) {
	start := time.Now()
	name := opName(op)
	result := "ok"
	defer func() {
		metrics.OcpRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.OcpRequestCount.WithLabelValues(name, result).Inc()
	}()

	o.dkMu.Lock()
	defer o.dkMu.Unlock()

	seq := o.nextSeq()
	req := encodeGenlMessage(o.family, nlmFRequest, seq, o.pid, op, attrs)
	if err := o.dk.Send(req); err != nil {
		result = "error"
		return genlFrame{}, lowLevelError("sending op %d: %v", op, err)
	}

	buf := make([]byte, 8192)
	n, err := o.dk.Recv(buf)
	if err != nil {
		result = "error"
		return genlFrame{}, lowLevelError("receiving reply to op %d: %v", op, err)
	}
	frame, err := decodeGenlMessage(buf[:n])
	if err != nil {
		result = "error"
		return genlFrame{}, lowLevelError("decoding reply to op %d: %v", op, err)
	}
	if frame.Header.Type == nlmsgError {
		errno, err := nlmsgerrErrno(buf[:n])
		if err != nil {
			result = "error"
			return genlFrame{}, lowLevelError("decoding nlmsgerr for op %d: %v", op, err)
		}
		if errno != 0 {
			result = "error"
			return genlFrame{}, classifyErrno(op, errno)
		}
	}
	return frame, nil
}

// Echo round-trips msg through the kernel module unchanged, the simplest
// liveness check.
func (o *Ocp) Echo(msg string) (string, error) {
	frame, err := o.exchangeDK(opEcho, attrString(attrMsg, msg))
	if err != nil {
		return "", err
	}
	return attrStringValue(frame.Attrs, attrMsg)
}

// DaemonHello announces the daemon to the kernel module with one request on
// S_DK. The request carries no attributes (no SocketKind), and no hello is
// sent on S_KD.
func (o *Ocp) DaemonHello() error {
	if _, err := o.exchangeDK(opDaemonHello, nil); err != nil {
		return err
	}
	return nil
}

// DaemonBye tells the kernel module the daemon is shutting down cleanly.
func (o *Ocp) DaemonBye() error {
	if _, err := o.exchangeDK(opDaemonBye, nil); err != nil {
		return err
	}
	return nil
}

// CreateDevice registers a new virtual device with the kernel module.
// Returns an OcpError of KindDeviceAlreadyExist if the device name is
// already taken.
func (o *Ocp) CreateDevice(req CreateDeviceRequest) error {
	_, err := o.exchangeDK(opCreateDevice, req.encode())
	return err
}

// DeleteDevice removes a previously created virtual device. Returns an
// OcpError of KindDeviceDoesntExist if it wasn't found; spec.md does not
// distinguish "never existed" from "already deleted" at this layer.
func (o *Ocp) DeleteDevice(req DeleteDeviceRequest) error {
	_, err := o.exchangeDK(opDeleteDevice, req.encode())
	return err
}

// DeviceInfo fetches what the kernel module knows about one virtual
// device.
func (o *Ocp) DeviceInfo(req DeviceInfoRequest) (DeviceInfoResponse, error) {
	frame, err := o.exchangeDK(opDeviceInfo, req.encode())
	if err != nil {
		return DeviceInfoResponse{}, err
	}
	return decodeDeviceInfoResponse(frame.Attrs)
}

// DebugRespondError asks the kernel module to answer this request with an
// NLMSG_ERROR and returns that reply's classified error, used by tests
// exercising error paths without real hardware.
func (o *Ocp) DebugRespondError(req DebugRespondErrorRequest) error {
	_, err := o.exchangeDK(opDebugRespondError, req.encode())
	return err
}

// KernelRequests returns the channel of kernel-initiated requests (S_KD).
// It is unbuffered beyond depth 1: the kernel module is expected to wait
// for ResolveCompletionReply before issuing its next request, so a full
// channel here means the daemon is behind, not a protocol violation.
func (o *Ocp) KernelRequests() <-chan KernelRequest {
	return o.kdRequests
}

// ResolveCompletion acknowledges one kernel-initiated completion request,
// unblocking the kernel module's caller.
func (o *Ocp) ResolveCompletion(reply ResolveCompletionReply) error {
	seq := o.nextSeq()
	req := encodeGenlMessage(o.family, 0, seq, o.pid, opResolveCompletion, reply.encode())
	if err := o.kd.Send(req); err != nil {
		return lowLevelError("sending completion resolution: %v", err)
	}
	return nil
}

// pollKernel is the S_KD non-blocking poll worker: it repeatedly attempts a
// non-blocking receive, decodes whatever arrives into a KernelRequest, and
// pushes it onto the bounded channel. It never acquires dkMu, so it cannot
// stall a concurrent daemon-initiated S_DK exchange.
func (o *Ocp) pollKernel(ctx context.Context) {
	defer close(o.kdDone)
	buf := make([]byte, 8192)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := o.kd.Recv(buf)
		if err != nil {
			if isWouldBlock(err) {
				continue
			}
			o.kdErr.Store(err)
			return
		}
		frame, err := decodeGenlMessage(buf[:n])
		if err != nil {
			continue // malformed kernel datagram; drop and keep polling
		}
		kreq, ok := decodeKernelRequest(frame)
		if !ok {
			continue
		}
		select {
		case o.kdRequests <- kreq:
		case <-ctx.Done():
			return
		}
	}
}

func decodeKernelRequest(frame genlFrame) (KernelRequest, bool) {
	switch frame.Cmd {
	case opResolveCompletion:
		rc, err := decodeResolveCompletionRequest(frame.Attrs)
		if err != nil {
			return KernelRequest{}, false
		}
		return KernelRequest{Op: opResolveCompletion, ResolveCompletion: rc}, true
	case opShutdownDaemon:
		return KernelRequest{Op: opShutdownDaemon}, true
	default:
		return KernelRequest{}, false
	}
}
