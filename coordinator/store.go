package coordinator

import "sync"

// virtualDeviceGuidBase marks the high byte of every coordinator-generated
// virtual device GUID, keeping the virtual address space disjoint from any
// plausible real vendor GUID range without needing a registry.
const virtualDeviceGuidBase = 0xfe00000000000000

// Store is the coordinator's whole virtualization state: every network it
// has ever seen a request for. One mutex guards all of it; this is
// deliberately coarse (per-network locking would let two goroutines observe
// different networks' states at inconsistent times during the diagnostic
// dump), matching spec.md's resolution of that open question.
type Store struct {
	mu       sync.Mutex
	networks map[string]*Network
	cfg      Config
}

// NewStore builds an empty Store. cfg may be the zero Config for no
// device allow-list restrictions.
func NewStore(cfg Config) *Store {
	return &Store{networks: make(map[string]*Network), cfg: cfg}
}

// getOrCreateNetwork returns the network for uuid, creating it on first
// reference. Networks are never pre-registered: any UUID becomes valid the
// first time a device is leased or a queue pair is created in it, per
// spec.md's lazy-creation default.
func (s *Store) getOrCreateNetwork(uuid string) *Network {
	n, ok := s.networks[uuid]
	if !ok {
		n = &Network{UUID: uuid, Devices: make(map[uint64]*Device)}
		s.networks[uuid] = n
	}
	return n
}

// Networks returns the UUIDs of every network the store currently holds
// state for, sorted is not guaranteed; callers needing deterministic order
// should sort themselves.
func (s *Store) Networks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.networks))
	for uuid := range s.networks {
		out = append(out, uuid)
	}
	return out
}

// NetworkDeviceSnapshot pairs a device's real GUID with its point-in-time
// snapshot, the shape the CSV dump flattens one row per GID out of.
type NetworkDeviceSnapshot struct {
	RealGUID uint64
	Snapshot DeviceSnapshot
}

// DumpNetwork returns a snapshot of every device leased within networkUUID,
// for the diagnostic CSV dump. Returns an empty slice, not an error, for a
// network the store has never seen: dump.csv is read-only diagnostics, and
// an unknown network has nothing to report rather than anything wrong.
func (s *Store) DumpNetwork(networkUUID string) []NetworkDeviceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.networks[networkUUID]
	if !ok {
		return nil
	}
	out := make([]NetworkDeviceSnapshot, 0, len(n.Devices))
	for realGUID, dev := range n.Devices {
		out = append(out, NetworkDeviceSnapshot{RealGUID: realGUID, Snapshot: snapshotDevice(dev)})
	}
	return out
}
