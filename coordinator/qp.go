package coordinator

import (
	"math/rand"

	"github.com/ovey-io/ovey/idcodec"
)

// virtualQpnReserved and virtualQpnSpace bound the virtual QPN allocation
// range from spec.md §3 Invariant 4: values 0-31 are reserved, so virtual
// QPNs are chosen from [32, 2^24).
const (
	virtualQpnReserved = 32
	virtualQpnSpace    = 1 << 24
)

// qpTaken reports whether qpn is already in use as either the real or
// virtual half of some queue pair pairing anywhere in n, scoped like GID
// uniqueness to the whole network rather than one device.
func qpTaken(n *Network, qpn uint32) bool {
	for _, entry := range n.QPs {
		if entry.Pair.Real == qpn || entry.Pair.Virt == qpn {
			return true
		}
	}
	return false
}

// nextVirtualQpn picks an unused virtual QPN for the network per spec.md
// §4.4's allocation formula: a random u32 mapped into [32, 2^24), retried
// on collision with an already-registered queue pair.
func nextVirtualQpn(n *Network) uint32 {
	for {
		candidate := rand.Uint32()%(virtualQpnSpace-virtualQpnReserved) + virtualQpnReserved
		if !qpTaken(n, candidate) {
			return candidate
		}
	}
}

// CreateQp registers a real queue pair number, paired with the real and
// virtual GID it was created against, and assigns it a fresh virtual queue
// pair number. A repeat CreateQp call for the same (realGID, realQPN) pair
// is idempotent. A virtGID that no GID pairing in the network holds is
// recorded as given; if the network's GID table pairs virtGID with a real
// GID other than realGID, the request is ambiguous about which device it
// concerns and is rejected with DeviceConflict rather than silently
// attaching the queue pair to the wrong device.
func (s *Store) CreateQp(networkUUID string, realGID, virtGID idcodec.GID, realQPN uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.getOrCreateNetwork(networkUUID)
	for _, entry := range n.QPs {
		if entry.GidPair.Real.Equal(realGID) && entry.Pair.Real == realQPN {
			return entry.Pair.Virt, nil
		}
	}
	if owner, ok := gidPairingOwner(n, virtGID); ok && !owner.Equal(realGID) {
		return 0, errDeviceConflict(virtGID.String())
	}

	virt := nextVirtualQpn(n)
	n.QPs = append(n.QPs, QpEntry{
		Pair:    Virt[uint32]{Real: realQPN, Virt: virt},
		GidPair: Virt[idcodec.GID]{Real: realGID, Virt: virtGID},
	})
	return virt, nil
}

// ResolveQp finds the real (GID, queue pair number) a virtual pair resolves
// to within networkUUID. Both virtGID and virtQPN must match the same
// pairing. Virtual queue pair numbers are already unique network-wide (see
// nextVirtualQpn), so the GID match is an extra check that the caller names
// the GID the queue pair was created against.
func (s *Store) ResolveQp(networkUUID string, virtGID idcodec.GID, virtQPN uint32) (idcodec.GID, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.networks[networkUUID]
	if !ok {
		return idcodec.GID{}, 0, errNetworkNotFound(networkUUID)
	}
	for _, entry := range n.QPs {
		if entry.GidPair.Virt.Equal(virtGID) && entry.Pair.Virt == virtQPN {
			return entry.GidPair.Real, entry.Pair.Real, nil
		}
	}
	return idcodec.GID{}, 0, errQpNotFound(virtQPN)
}
