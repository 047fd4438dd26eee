package ocp

import (
	"encoding/binary"
	"fmt"
)

// Generic-netlink attribute types carried by OCP messages, per spec.md
// §4.2's attribute table. Msg is reused across every operation as a
// free-form human-readable diagnostic string (DebugRespondError in
// particular).
const (
	attrMsg              uint16 = 1
	attrDeviceName       uint16 = 2
	attrParentDeviceName uint16 = 3
	attrNodeGuid         uint16 = 4
	attrParentNodeGuid   uint16 = 5
	attrVirtNetUUIDStr   uint16 = 6
	attrNodeLid          uint16 = 7
	attrSocketKind       uint16 = 8
	attrCompletionID     uint16 = 9
)

// attrString builds a NUL-terminated string attribute, the form the kernel
// module expects for names, GUID/LID text, and UUID text alike (spec.md's
// identifier codecs operate on exactly this textual form).
func attrString(typ uint16, s string) []byte {
	return encodeAttr(nil, typ, append([]byte(s), 0))
}

// attrU32 builds a 4-byte little-endian integer attribute (used for
// CompletionId; no request encodes SocketKind).
func attrU32(typ uint16, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return encodeAttr(nil, typ, b)
}

func findAttr(attrs []attrTLV, typ uint16) (attrTLV, bool) {
	for _, a := range attrs {
		if a.Type == typ {
			return a, true
		}
	}
	return attrTLV{}, false
}

// attrStringValue returns a string attribute's value with its trailing NUL
// (if present) stripped.
func attrStringValue(attrs []attrTLV, typ uint16) (string, error) {
	a, ok := findAttr(attrs, typ)
	if !ok {
		return "", fmt.Errorf("ocp: missing attribute %d", typ)
	}
	s := a.Data
	if n := len(s); n > 0 && s[n-1] == 0 {
		s = s[:n-1]
	}
	return string(s), nil
}

func attrU32Value(attrs []attrTLV, typ uint16) (uint32, error) {
	a, ok := findAttr(attrs, typ)
	if !ok {
		return 0, fmt.Errorf("ocp: missing attribute %d", typ)
	}
	if len(a.Data) < 4 {
		return 0, fmt.Errorf("ocp: attribute %d too short for u32 (%d bytes)", typ, len(a.Data))
	}
	return binary.LittleEndian.Uint32(a.Data), nil
}
