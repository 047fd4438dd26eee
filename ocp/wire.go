// Package ocp implements the Ovey Control Protocol: the asynchronous,
// two-socket generic-netlink dialect between the userland daemon and the
// "rdma-ovey" kernel module (spec.md §4.2).
//
// This file implements the wire encoding shared by every OCP message: the
// netlink message header, the generic-netlink header, and the TLV attribute
// list. It is deliberately independent of any socket or syscall so it can be
// unit tested without CAP_NET_ADMIN or a running kernel module, the same way
// the teacher keeps inetdiag's ParseRouteAttr free of socket concerns.
package ocp

import (
	"encoding/binary"
	"fmt"
)

// Netlink and generic-netlink wire constants this package needs. Mirrors
// what golang.org/x/sys/unix exposes, spelled out locally so the encode/
// decode logic reads the same way regardless of platform build tags.
const (
	nlmsghdrLen   = 16 // struct nlmsghdr: len(4) type(2) flags(2) seq(4) pid(4)
	genlmsghdrLen = 4  // struct genlmsghdr: cmd(1) version(1) reserved(2)
	nlaHdrLen     = 4  // struct nlattr: len(2) type(2)

	nlmFRequest = 0x1
	nlmFDump    = 0x100

	nlmsgError = 0x2
	nlmsgDone  = 0x3

	genlIDCtrl           = 0x10
	ctrlCmdGetFamily     = 3
	ctrlAttrFamilyID     = 1
	ctrlAttrFamilyName   = 2
)

// rtaAlign rounds n up to the next 4-byte boundary, the netlink attribute
// alignment rule (NLA_ALIGNTO). Grounded on the teacher's own
// inetdiag.rtaAlignOf / netlink.rtaAlignOf, generalized from route-netlink's
// RTA_ALIGNTO (also 4) to generic-netlink's NLA_ALIGNTO.
func rtaAlign(n int) int {
	return (n + 3) &^ 3
}

// attrTLV holds one decoded generic-netlink attribute: its type code and raw
// payload bytes (NUL padding already stripped for string-shaped payloads is
// the caller's job, not this layer's).
type attrTLV struct {
	Type uint16
	Data []byte
}

// encodeAttr appends one attribute's TLV encoding (header + payload, padded
// to 4 bytes) to buf and returns the result.
func encodeAttr(buf []byte, typ uint16, payload []byte) []byte {
	length := nlaHdrLen + len(payload)
	padded := rtaAlign(length)
	hdr := make([]byte, padded)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(length))
	binary.LittleEndian.PutUint16(hdr[2:4], typ)
	copy(hdr[nlaHdrLen:], payload)
	return append(buf, hdr...)
}

// parseAttrs walks a byte slice of concatenated TLV attributes and returns
// them in order. It tolerates a trailing short attribute by stopping early
// rather than erroring, matching the teacher's ParseRouteAttr behavior of
// looping "while len(b) >= header size".
func parseAttrs(b []byte) ([]attrTLV, error) {
	var out []attrTLV
	for len(b) >= nlaHdrLen {
		alen := int(binary.LittleEndian.Uint16(b[0:2]))
		atyp := binary.LittleEndian.Uint16(b[2:4])
		if alen < nlaHdrLen || alen > len(b) {
			return nil, fmt.Errorf("ocp: malformed attribute length %d (have %d bytes)", alen, len(b))
		}
		out = append(out, attrTLV{Type: atyp, Data: b[nlaHdrLen:alen]})
		b = b[rtaAlign(alen):]
	}
	return out, nil
}

// nlmsghdr mirrors struct nlmsghdr: total message length (header + payload),
// message type (either NLMSG_ERROR/NLMSG_DONE or the resolved genl family
// id), flags, sequence number, and port id.
type nlmsghdr struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	PID   uint32
}

func encodeNlmsghdr(h nlmsghdr) []byte {
	buf := make([]byte, nlmsghdrLen)
	binary.LittleEndian.PutUint32(buf[0:4], h.Len)
	binary.LittleEndian.PutUint16(buf[4:6], h.Type)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.Seq)
	binary.LittleEndian.PutUint32(buf[12:16], h.PID)
	return buf
}

func decodeNlmsghdr(b []byte) (nlmsghdr, error) {
	if len(b) < nlmsghdrLen {
		return nlmsghdr{}, fmt.Errorf("ocp: short netlink header (%d bytes)", len(b))
	}
	return nlmsghdr{
		Len:   binary.LittleEndian.Uint32(b[0:4]),
		Type:  binary.LittleEndian.Uint16(b[4:6]),
		Flags: binary.LittleEndian.Uint16(b[6:8]),
		Seq:   binary.LittleEndian.Uint32(b[8:12]),
		PID:   binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// genlFrame is a fully decoded generic-netlink datagram: the outer netlink
// header, the generic-netlink command byte, and the parsed attribute list.
type genlFrame struct {
	Header nlmsghdr
	Cmd    uint8
	Attrs  []attrTLV
}

// encodeGenlMessage builds a complete netlink datagram carrying a
// generic-netlink payload: nlmsghdr + genlmsghdr(cmd) + attributes.
func encodeGenlMessage(nlType uint16, flags uint16, seq, pid uint32, cmd uint8, attrs []byte) []byte {
	genlHdr := make([]byte, genlmsghdrLen)
	genlHdr[0] = cmd
	genlHdr[1] = 1 // version; the kernel module does not check this

	payload := append(genlHdr, attrs...)
	total := nlmsghdrLen + len(payload)

	msg := encodeNlmsghdr(nlmsghdr{
		Len:   uint32(total),
		Type:  nlType,
		Flags: flags,
		Seq:   seq,
		PID:   pid,
	})
	return append(msg, payload...)
}

// decodeGenlMessage parses a complete datagram read off a netlink socket
// into its header, generic-netlink command, and attribute list. NLMSG_ERROR
// datagrams are returned with Cmd == 0 and Attrs == nil; callers must check
// Header.Type == nlmsgError separately (see nlmsgerrErrno).
func decodeGenlMessage(b []byte) (genlFrame, error) {
	hdr, err := decodeNlmsghdr(b)
	if err != nil {
		return genlFrame{}, err
	}
	if int(hdr.Len) > len(b) {
		return genlFrame{}, fmt.Errorf("ocp: netlink header claims %d bytes, have %d", hdr.Len, len(b))
	}
	rest := b[nlmsghdrLen:hdr.Len]
	if hdr.Type == nlmsgError || hdr.Type == nlmsgDone {
		return genlFrame{Header: hdr}, nil
	}
	if len(rest) < genlmsghdrLen {
		return genlFrame{}, fmt.Errorf("ocp: short generic-netlink header (%d bytes)", len(rest))
	}
	cmd := rest[0]
	attrs, err := parseAttrs(rest[genlmsghdrLen:])
	if err != nil {
		return genlFrame{}, err
	}
	return genlFrame{Header: hdr, Cmd: cmd, Attrs: attrs}, nil
}

// nlmsgerrErrno extracts the errno (negated, as in struct nlmsgerr) from an
// NLMSG_ERROR datagram's payload. Grounded on the teacher's
// socket-monitor.go use of nl.NativeEndian() against m.Data[0:4].
func nlmsgerrErrno(b []byte) (int32, error) {
	rest := b[nlmsghdrLen:]
	if len(rest) < 4 {
		return 0, fmt.Errorf("ocp: NLMSG_ERROR payload too short (%d bytes)", len(rest))
	}
	errno := int32(binary.LittleEndian.Uint32(rest[0:4]))
	return errno, nil
}
