package coordinator

import (
	"sort"
	"time"

	"github.com/ovey-io/ovey/idcodec"
)

func guidString(guid uint64) string { return idcodec.GUIDU64ToString(guid) }

// Snapshot types are plain-value copies of the internal Device/Port/GidEntry
// graph, returned by every Store query method so callers never hold a live
// pointer into state guarded by Store.mu. Rendering a REST response or a
// CSV row from one of these cannot race against a concurrent coordinator
// operation the way reading through *Device directly would.

// GidSnapshot is one leased GID pairing. Pair holds plain idcodec.GID
// values (two uint64 fields, no pointer inside), so copying them out from
// under Store.mu is race-free without any string round trip.
type GidSnapshot struct {
	Idx  uint32
	Pair Virt[idcodec.GID]
}

// PortSnapshot is one virtual port and everything leased on it.
type PortSnapshot struct {
	ID           uint32
	PortNum      uint16
	PkeyTblLen   uint32
	GidTblLen    uint32
	CoreCapFlags uint32
	MaxMadSize   uint32
	Lid          *uint16
	Gids         []GidSnapshot
}

// DeviceSnapshot is one leased device and every port virtualized under it.
type DeviceSnapshot struct {
	GUID       Virt[string] // canonical GUID text
	ParentName string
	Ports      []PortSnapshot
	Lease      time.Time
}

func snapshotDevice(d *Device) DeviceSnapshot {
	ports := make([]PortSnapshot, 0, len(d.Ports))
	for _, p := range d.Ports {
		ports = append(ports, snapshotPort(p))
	}
	// d.Ports is keyed by real port number, so ranging it gives no stable
	// order; virtual port ids are assigned densely in insertion order
	// (spec.md §8), so sorting on ID restores it for JSON/CSV output.
	sort.Slice(ports, func(i, j int) bool { return ports[i].ID < ports[j].ID })
	return DeviceSnapshot{
		GUID:       Virt[string]{Real: guidString(d.GUID.Real), Virt: guidString(d.GUID.Virt)},
		ParentName: d.ParentName,
		Ports:      ports,
		Lease:      d.Lease,
	}
}

func snapshotPort(p *Port) PortSnapshot {
	gids := make([]GidSnapshot, len(p.Gids))
	for i, g := range p.Gids {
		gids[i] = GidSnapshot{
			Idx:  g.Idx,
			Pair: Virt[idcodec.GID]{Real: g.Pair.Real, Virt: g.Pair.Virt},
		}
	}
	var lid *uint16
	if p.Lid != nil {
		l := *p.Lid
		lid = &l
	}
	return PortSnapshot{
		ID:           p.ID,
		PortNum:      p.PortNum,
		PkeyTblLen:   p.PkeyTblLen,
		GidTblLen:    p.GidTblLen,
		CoreCapFlags: p.CoreCapFlags,
		MaxMadSize:   p.MaxMadSize,
		Lid:          lid,
		Gids:         gids,
	}
}
