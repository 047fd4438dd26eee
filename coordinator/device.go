package coordinator

import (
	"time"

	"github.com/ovey-io/ovey/idcodec"
	"github.com/ovey-io/ovey/metrics"
)

// LeaseDevice maps a real device GUID to a virtual one within networkUUID,
// creating the network and the mapping on first use. A second LeaseDevice
// call for the same real GUID returns the same virtual GUID it returned the
// first time (idempotent), rather than erroring or minting a new one.
func (s *Store) LeaseDevice(networkUUID string, realGUID uint64, parentDeviceName string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.AllowedDeviceGuids != nil {
		guidStr := idcodec.GUIDU64ToString(realGUID)
		if !s.cfg.deviceAllowed(networkUUID, guidStr) {
			return 0, errDeviceGuidNotAllowed(guidStr)
		}
	}

	n := s.getOrCreateNetwork(networkUUID)
	if dev, ok := n.Devices[realGUID]; ok {
		dev.Lease = time.Now()
		return dev.GUID.Virt, nil
	}

	virtGUID := virtualDeviceGuidBase | uint64(len(n.Devices)+1)
	for s.virtualGuidTaken(n, virtGUID) {
		virtGUID++
	}

	n.Devices[realGUID] = &Device{
		GUID:       Virt[uint64]{Real: realGUID, Virt: virtGUID},
		ParentName: parentDeviceName,
		Ports:      make(map[uint16]*Port),
		NextPortID: 1,
		Lease:      time.Now(),
	}
	metrics.StoreSize.WithLabelValues(networkUUID).Set(float64(len(n.Devices)))
	return virtGUID, nil
}

// virtualGuidTaken reports whether any device in n already carries virtGUID
// as its virtual GUID, enforcing virtual GUID uniqueness network-wide.
func (s *Store) virtualGuidTaken(n *Network, virtGUID uint64) bool {
	for _, dev := range n.Devices {
		if dev.GUID.Virt == virtGUID {
			return true
		}
	}
	return false
}

// Device looks up the leased device for realGUID within networkUUID and
// returns a point-in-time snapshot. The snapshot is a copy: mutating it has
// no effect on the store, and holding onto it cannot race against later
// Store calls the way a live pointer into the internal map would.
func (s *Store) Device(networkUUID string, realGUID uint64) (DeviceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.networks[networkUUID]
	if !ok {
		return DeviceSnapshot{}, errNetworkNotFound(networkUUID)
	}
	dev, ok := n.Devices[realGUID]
	if !ok {
		return DeviceSnapshot{}, errDeviceNotFound(idcodec.GUIDU64ToString(realGUID))
	}
	return snapshotDevice(dev), nil
}
