package idcodec

import (
	"encoding/binary"
	"fmt"
)

// GID is an Infiniband-style global identifier: a 128-bit value split into a
// 64-bit subnet prefix and a 64-bit interface id, both held in host order.
type GID struct {
	SubnetPrefix uint64
	InterfaceID  uint64
}

// IsReserved reports whether g is a reserved address (interface id zero),
// per RFC 4291 §2.5.1 / IBTA 4.1.1.6. Reserved GIDs must never be stored by
// the coordinator.
func (g GID) IsReserved() bool { return g.InterfaceID == 0 }

// IsLoopback reports whether g is the loopback-only address (interface id
// one). Loopback-only GIDs must never be stored by the coordinator.
func (g GID) IsLoopback() bool { return g.InterfaceID == 1 }

// String renders g as 16 big-endian bytes with a colon inserted every 4
// bytes. Each byte is printed with %01x (no zero padding), so it takes one
// hex digit below 0x10 and two otherwise, matching the original Ovey Gid
// Display impl.
func (g GID) String() string {
	var wtr [16]byte
	binary.BigEndian.PutUint64(wtr[0:8], g.SubnetPrefix)
	binary.BigEndian.PutUint64(wtr[8:16], g.InterfaceID)

	buf := make([]byte, 0, 16*2+3)
	for i, w := range wtr {
		if i > 0 && i%4 == 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, fmt.Sprintf("%01x", w)...)
	}
	return string(buf)
}

// Equal reports whether g and other address the same (subnet_prefix,
// interface_id) pair.
func (g GID) Equal(other GID) bool {
	return g.SubnetPrefix == other.SubnetPrefix && g.InterfaceID == other.InterfaceID
}
