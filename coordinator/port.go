package coordinator

import "github.com/ovey-io/ovey/idcodec"

// lookupDevice returns the live *Device for (networkUUID, realGUID).
// Callers must hold s.mu and must never leak the returned pointer past the
// call that obtained it; use the Snapshot types to hand data back out.
func (s *Store) lookupDevice(networkUUID string, realGUID uint64) (*Device, error) {
	n, ok := s.networks[networkUUID]
	if !ok {
		return nil, errNetworkNotFound(networkUUID)
	}
	dev, ok := n.Devices[realGUID]
	if !ok {
		return nil, errDeviceNotFound(idcodec.GUIDU64ToString(realGUID))
	}
	return dev, nil
}

// CreatePort registers a virtual port's fixed capability attributes on a
// previously leased device, assigning it the next dense port id within that
// device. Calling CreatePort again for a real port number already
// registered on this device returns the existing port unchanged (the
// kernel module re-announces ports it has already told the coordinator
// about whenever a device is re-initialized).
func (s *Store) CreatePort(networkUUID string, realGUID uint64, realPortNum uint16, pkeyTblLen, gidTblLen, coreCapFlags, maxMadSize uint32) (PortSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.lookupDevice(networkUUID, realGUID)
	if err != nil {
		return PortSnapshot{}, err
	}
	if p, ok := dev.Ports[realPortNum]; ok {
		return snapshotPort(p), nil
	}

	p := &Port{
		ID:           dev.NextPortID,
		PortNum:      realPortNum,
		PkeyTblLen:   pkeyTblLen,
		GidTblLen:    gidTblLen,
		CoreCapFlags: coreCapFlags,
		MaxMadSize:   maxMadSize,
	}
	dev.NextPortID++
	dev.Ports[realPortNum] = p
	return snapshotPort(p), nil
}

// SetPortAttr sets the LID a virtual port reports. It may be called
// repeatedly; the most recent value wins.
func (s *Store) SetPortAttr(networkUUID string, realGUID uint64, realPortNum uint16, lid uint16) (PortSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.lookupDevice(networkUUID, realGUID)
	if err != nil {
		return PortSnapshot{}, err
	}
	p, ok := dev.Ports[realPortNum]
	if !ok {
		return PortSnapshot{}, errPortNotFound(realPortNum)
	}
	p.Lid = &lid
	return snapshotPort(p), nil
}
