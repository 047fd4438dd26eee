// Package idcodec implements the identifier codecs for Ovey's wire and
// kernel-crossing identifiers: GUID, LID and GID textual forms, and the two
// byte-order boundary helpers used when those identifiers leave host order.
//
// Everything in this package is a pure function. Byte-swapping is isolated
// here; its callers are the U64Be fields of the kernel request packet (kreq)
// and the daemon's read of a request's device GUID. The generic-netlink
// layer (ocp) carries GUIDs as NUL-terminated text attributes and does no
// byte-swapping. No other package should reach for encoding/binary.BigEndian
// on a GUID or GID value.
package idcodec

import "encoding/binary"

// byteReverse reverses a u64's byte order unconditionally. Go's
// encoding/binary does not implicitly depend on host layout the way the
// original Ovey endianness helper's native-order probe did, so a single
// reversal (rather than a host-conditional one) is both correct on every
// platform and its own inverse: byteReverse(byteReverse(x)) == x.
func byteReverse(v uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return binary.LittleEndian.Uint64(buf[:])
}

// U64HostToBE converts a u64 from host byte order to big-endian wire order.
// This is the format the kernel module expects GUIDs to be stored in.
func U64HostToBE(v uint64) uint64 { return byteReverse(v) }

// U64BEToHost converts a u64 from big-endian wire order back to host byte
// order. It is the inverse of U64HostToBE; U64BEToHost(U64HostToBE(x)) == x
// for every x.
func U64BEToHost(v uint64) uint64 { return byteReverse(v) }
