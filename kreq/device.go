package kreq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"
)

// Device reads kernel-initiated requests off an io.ReadWriteCloser (the
// real /dev/ovey character device in production, a fake in tests) and
// writes resolved responses back. Grounded on
// original_source/ovey_daemon/src/main.rs's cdev_thread loop: a zero-byte
// read means "nothing pending, sleep and retry", EINTR means "retry
// immediately", any other read error aborts the loop.
type Device struct {
	f        io.ReadWriteCloser
	idleWait time.Duration
}

// NewDevice wraps f with the default idle-retry interval the original loop
// used (500ms).
func NewDevice(f io.ReadWriteCloser) *Device {
	return &Device{f: f, idleWait: 500 * time.Millisecond}
}

// Close closes the underlying device.
func (d *Device) Close() error {
	return d.f.Close()
}

// ReadRequest blocks until one full request packet has been read, retrying
// on idle (zero-byte) reads and EINTR, or until ctx is done.
func (d *Device) ReadRequest(ctx context.Context) (Request, error) {
	buf := make([]byte, PacketSize)
	for {
		if err := ctx.Err(); err != nil {
			return Request{}, err
		}
		n, err := d.f.Read(buf)
		switch {
		case errors.Is(err, syscall.EINTR):
			continue
		case err != nil:
			return Request{}, fmt.Errorf("kreq: reading request: %w", err)
		case n == 0:
			select {
			case <-time.After(d.idleWait):
				continue
			case <-ctx.Done():
				return Request{}, ctx.Err()
			}
		case n < PacketSize:
			return Request{}, fmt.Errorf("kreq: short read (%d of %d bytes)", n, PacketSize)
		default:
			return DecodeRequest(buf)
		}
	}
}

// WriteResponse writes one resolved response packet back to the device.
func (d *Device) WriteResponse(resp Response) error {
	buf, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	n, err := d.f.Write(buf)
	if err != nil {
		return fmt.Errorf("kreq: writing response: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("kreq: short write (%d of %d bytes)", n, len(buf))
	}
	return nil
}

// Serve runs the read-resolve-write loop until ctx is canceled or handle
// returns a non-nil error. It is the Go-idiomatic replacement for
// cdev_thread's unconditional loop plus exit_work_loop flag: ctx.Done()
// replaces the shared AtomicBool.
func (d *Device) Serve(ctx context.Context, handle func(context.Context, Request) (Response, error)) error {
	for {
		req, err := d.ReadRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		resp, err := handle(ctx, req)
		if err != nil {
			return fmt.Errorf("kreq: handling %s request (seq %d): %w", req.Cmd, req.Seq, err)
		}
		if err := d.WriteResponse(resp); err != nil {
			return err
		}
	}
}
