package ocp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the outcome of an OCP request the way the kernel
// module's errno reports it, so the daemon layer above can branch on
// meaning instead of raw numbers. Grounded on
// original_source/libocp/src/ocp_core/ocp.rs's match over Nlmsgerr.
type ErrorKind int

const (
	// KindNone marks a successful reply; never set on a returned error.
	KindNone ErrorKind = iota
	// KindDeviceAlreadyExist maps EEXIST from CreateDevice.
	KindDeviceAlreadyExist
	// KindDeviceDoesntExist maps ENODEV/ENOENT from DeleteDevice or DeviceInfo.
	KindDeviceDoesntExist
	// KindInvalid wraps any other errno the kernel module returned.
	KindInvalid
	// KindLowLevel marks a malformed datagram or transport failure, not an
	// errno the kernel module chose deliberately.
	KindLowLevel
)

// OcpError is the error type every OCP operation returns on failure.
type OcpError struct {
	Kind  ErrorKind
	Errno int32 // 0 for KindLowLevel
	msg   string
}

func (e *OcpError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("ocp: request failed (errno %d)", e.Errno)
}

const (
	eexist = 17
	enoent = 2
	enodev = 19
)

// classifyErrno maps a kernel-reported errno to an ErrorKind in the context
// of the operation that produced it: CreateDevice's EEXIST means something
// different from DeleteDevice's.
func classifyErrno(op uint8, errno int32) *OcpError {
	abs := errno
	if abs < 0 {
		abs = -abs
	}
	switch {
	case op == opCreateDevice && abs == eexist:
		return &OcpError{Kind: KindDeviceAlreadyExist, Errno: errno}
	case (op == opDeleteDevice || op == opDeviceInfo) && (abs == enodev || abs == enoent):
		return &OcpError{Kind: KindDeviceDoesntExist, Errno: errno}
	default:
		return &OcpError{Kind: KindInvalid, Errno: errno}
	}
}

func lowLevelError(format string, args ...any) *OcpError {
	return &OcpError{Kind: KindLowLevel, msg: fmt.Sprintf(format, args...)}
}

// IsDeviceAlreadyExist reports whether err is an OcpError of kind
// KindDeviceAlreadyExist.
func IsDeviceAlreadyExist(err error) bool {
	var oe *OcpError
	return errors.As(err, &oe) && oe.Kind == KindDeviceAlreadyExist
}

// IsDeviceDoesntExist reports whether err is an OcpError of kind
// KindDeviceDoesntExist.
func IsDeviceDoesntExist(err error) bool {
	var oe *OcpError
	return errors.As(err, &oe) && oe.Kind == KindDeviceDoesntExist
}
