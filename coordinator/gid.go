package coordinator

import (
	"math/rand"

	"github.com/ovey-io/ovey/idcodec"
)

// virtualGidSubnetPrefix is the fixed subnet prefix every virtual GID is
// leased under (spec.md §4.4): the overlay hands out link-local addresses
// regardless of what subnet prefix the real GID carries.
const virtualGidSubnetPrefix = 0xfe80000000000000

// gidTakenInNetwork reports whether gid already appears, as either the real
// or the virtual half of some pairing, anywhere in n. Both real and virtual
// GID uniqueness are enforced network-wide, not just within one port: two
// different devices in the same overlay network must never be handed
// overlapping GID space.
func gidTakenInNetwork(n *Network, gid idcodec.GID) bool {
	for _, dev := range n.Devices {
		for _, port := range dev.Ports {
			for _, entry := range port.Gids {
				if entry.Pair.Real.Equal(gid) || entry.Pair.Virt.Equal(gid) {
					return true
				}
			}
		}
	}
	return false
}

// gidPairingOwner reports the real GID paired with virt in the network's
// leased GID table, if any. Used to catch a CreateQp call whose supplied
// virtual GID actually belongs to a different device's pairing than the
// real GID it was called with.
func gidPairingOwner(n *Network, virt idcodec.GID) (idcodec.GID, bool) {
	for _, dev := range n.Devices {
		for _, port := range dev.Ports {
			for _, entry := range port.Gids {
				if entry.Pair.Virt.Equal(virt) {
					return entry.Pair.Real, true
				}
			}
		}
	}
	return idcodec.GID{}, false
}

// nextVirtualGid picks an unused virtual GID for the network: the fixed
// link-local subnet prefix (spec.md §4.4) paired with a random interface
// id, retried against collision with an already-leased GID and against the
// reserved/loopback interface ids.
func nextVirtualGid(n *Network, real idcodec.GID) idcodec.GID {
	for {
		candidate := idcodec.GID{SubnetPrefix: virtualGidSubnetPrefix, InterfaceID: rand.Uint64()}
		if candidate.IsReserved() || candidate.IsLoopback() || gidTakenInNetwork(n, candidate) {
			continue
		}
		return candidate
	}
}

// LeaseGid resolves the virtual GID at table index idx on a device's real
// port, leasing a fresh one on first use. Repeated calls for the same
// (device, port, idx, real GID) return the same virtual GID (idempotent).
// Leasing fails if idx is outside the port's declared gid_tbl_len, or if
// real is reserved or loopback-only (spec.md's GID storage invariant).
func (s *Store) LeaseGid(networkUUID string, realGUID uint64, realPortNum uint16, idx uint32, real idcodec.GID) (idcodec.GID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if real.IsReserved() || real.IsLoopback() {
		return idcodec.GID{}, errGidReserved(real.String())
	}

	n, ok := s.networks[networkUUID]
	if !ok {
		return idcodec.GID{}, errNetworkNotFound(networkUUID)
	}
	dev, err := s.lookupDevice(networkUUID, realGUID)
	if err != nil {
		return idcodec.GID{}, err
	}
	port, ok := dev.Ports[realPortNum]
	if !ok {
		return idcodec.GID{}, errPortNotFound(realPortNum)
	}
	if idx >= port.GidTblLen {
		return idcodec.GID{}, errGidNotFound(idx)
	}

	for _, entry := range port.Gids {
		if entry.Idx == idx {
			if entry.Pair.Real.Equal(real) {
				return entry.Pair.Virt, nil
			}
			return idcodec.GID{}, errGidConflict(real.String())
		}
	}
	if gidTakenInNetwork(n, real) {
		return idcodec.GID{}, errGidConflict(real.String())
	}

	virt := nextVirtualGid(n, real)
	port.Gids = append(port.Gids, GidEntry{Idx: idx, Pair: Virt[idcodec.GID]{Real: real, Virt: virt}})
	return virt, nil
}

// SetGid explicitly records a real/virtual GID pairing at matching table
// indices, bypassing LeaseGid's allocation. realIdx and virtIdx must be
// equal: the coordinator never stores a virtual GID at a different table
// slot than its real counterpart occupies (spec.md's coupled GID index
// invariant).
func (s *Store) SetGid(networkUUID string, realGUID uint64, realPortNum uint16, realIdx, virtIdx uint32, real, virt idcodec.GID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if realIdx != virtIdx {
		return errGidNotFound(realIdx)
	}
	if real.IsReserved() || real.IsLoopback() {
		return errGidReserved(real.String())
	}

	n, ok := s.networks[networkUUID]
	if !ok {
		return errNetworkNotFound(networkUUID)
	}
	dev, err := s.lookupDevice(networkUUID, realGUID)
	if err != nil {
		return err
	}
	port, ok := dev.Ports[realPortNum]
	if !ok {
		return errPortNotFound(realPortNum)
	}
	if realIdx >= port.GidTblLen {
		return errGidNotFound(realIdx)
	}

	for i, entry := range port.Gids {
		if entry.Idx == realIdx {
			port.Gids[i].Pair = Virt[idcodec.GID]{Real: real, Virt: virt}
			return nil
		}
	}
	if gidTakenInNetwork(n, real) || gidTakenInNetwork(n, virt) {
		return errGidConflict(real.String())
	}
	port.Gids = append(port.Gids, GidEntry{Idx: realIdx, Pair: Virt[idcodec.GID]{Real: real, Virt: virt}})
	return nil
}
