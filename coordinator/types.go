// Package coordinator implements the in-memory virtualization core
// (spec.md §4.4): the authoritative map from real InfiniBand identifiers to
// the virtual ones a given overlay network hands out, and back. Grounded on
// original_source/ovey_coordinator/src/db/mod.rs's Db/Network/Device/Port
// hierarchy and its virt/real pairing helpers.
package coordinator

import (
	"time"

	"github.com/ovey-io/ovey/idcodec"
)

// Virt pairs a real identifier with the virtual one the coordinator
// assigned it, the same shape original_source/ovey_coordinator/src/db/
// guid.rs and friends use for every leased identifier.
type Virt[T any] struct {
	Real T
	Virt T
}

// GidEntry is one leased GID pairing at a fixed table index. Real and Virt
// index must agree (spec.md's coupled GID index invariant): the
// coordinator never assigns a virtual GID at a different table slot than
// its real counterpart occupies.
type GidEntry struct {
	Idx  uint32
	Pair Virt[idcodec.GID]
}

// QpEntry is one leased queue pair number pairing, scoped to the network
// (not to a device or port: ResolveQp searches the whole network). GidPair
// records the real and virtual GID the queue pair was created against, so a
// virtual-side lookup can require both the virtual GID and the virtual
// queue pair number to match.
type QpEntry struct {
	Pair    Virt[uint32]
	GidPair Virt[idcodec.GID]
}

// Port is a virtual port on a device. PkeyTblLen/GidTblLen/CoreCapFlags/
// MaxMadSize are recorded at CreatePort time and never change; Lid is set
// later via SetPortAttr.
type Port struct {
	ID           uint32 // dense, monotonically allocated within the device
	PortNum      uint16 // the real device's port number this virtualizes
	PkeyTblLen   uint32
	GidTblLen    uint32
	CoreCapFlags uint32
	MaxMadSize   uint32
	Lid          *uint16 // nil until SetPortAttr is called; see idcodec.LIDU16ToString
	Gids         []GidEntry   // index-addressed, len() <= GidTblLen
}

// Device is one leased real-to-virtual GUID mapping plus everything
// virtualized underneath it.
type Device struct {
	GUID       Virt[uint64] // host-order GUIDs, see idcodec.GUIDU64ToString
	ParentName string
	Ports      map[uint16]*Port // keyed by real port number
	NextPortID uint32
	Lease      time.Time // refreshed on every LeaseDevice call, including repeats
}

// Network is one overlay network's complete virtualization state: every
// device leased into it, and the queue pairs resolved within it. A single
// mutex in Store guards all networks; Network itself holds no lock.
type Network struct {
	UUID    string
	Devices map[uint64]*Device // keyed by real GUID
	QPs     []QpEntry
}
