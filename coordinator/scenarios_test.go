package coordinator

import (
	"errors"
	"testing"

	"github.com/ovey-io/ovey/idcodec"
)

// TestScenarioGidLease is end-to-end scenario 2 (spec.md §8): leasing a GID
// on an empty network returns a virtual GID with the expected subnet prefix
// and a non-zero interface id, and a second lease at a different index
// succeeds independently.
func TestScenarioGidLease(t *testing.T) {
	s := NewStore(Config{})
	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	if _, err := s.CreatePort(testNetwork, 0xaaaa, 1, 1, 4, 0, 0); err != nil {
		t.Fatalf("CreatePort: %v", err)
	}

	real := idcodec.GID{SubnetPrefix: 0x1122, InterfaceID: 0x3344}
	virt, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, real)
	if err != nil {
		t.Fatalf("LeaseGid: %v", err)
	}
	if virt.SubnetPrefix != 0xfe80000000000000 {
		t.Errorf("virt subnet prefix = %#x, want 0xfe80000000000000", virt.SubnetPrefix)
	}
	if virt.InterfaceID == 0 {
		t.Error("virt interface id must be non-zero")
	}

	virt2, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 1, idcodec.GID{SubnetPrefix: 0x1122, InterfaceID: 0x5566})
	if err != nil {
		t.Fatalf("LeaseGid (idx 1): %v", err)
	}
	if virt2.Equal(virt) {
		t.Error("leasing a distinct real gid at a distinct index must not collide")
	}
}

// TestScenarioReservedGidRejected is end-to-end scenario 3: leasing the
// reserved (interface id zero) GID is rejected.
func TestScenarioReservedGidRejected(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.CreatePort(testNetwork, 0xaaaa, 1, 1, 4, 0, 0)

	_, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, idcodec.GID{SubnetPrefix: 0, InterfaceID: 0})
	var ce *CoordinatorError
	if !errors.As(err, &ce) || ce.Kind != KindGidReserved {
		t.Fatalf("LeaseGid(reserved) err = %v, want KindGidReserved", err)
	}
}

// TestScenarioGidConflict is end-to-end scenario 4: two SetGid calls on
// different ports of the same network with the same virtual GID but
// different real GIDs; the first succeeds, the second is a conflict.
func TestScenarioGidConflict(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.LeaseDevice(testNetwork, 0xbbbb, "mlx5_1")
	s.CreatePort(testNetwork, 0xaaaa, 1, 1, 4, 0, 0)
	s.CreatePort(testNetwork, 0xbbbb, 1, 1, 4, 0, 0)

	sharedVirt := idcodec.GID{SubnetPrefix: 0xfe80000000000000, InterfaceID: 0x9999}
	if err := s.SetGid(testNetwork, 0xaaaa, 1, 0, 0, idcodec.GID{SubnetPrefix: 1, InterfaceID: 100}, sharedVirt); err != nil {
		t.Fatalf("first SetGid: %v", err)
	}

	err := s.SetGid(testNetwork, 0xbbbb, 1, 0, 0, idcodec.GID{SubnetPrefix: 2, InterfaceID: 200}, sharedVirt)
	var ce *CoordinatorError
	if !errors.As(err, &ce) || ce.Kind != KindGidConflict {
		t.Fatalf("second SetGid err = %v, want KindGidConflict", err)
	}
}

// TestScenarioResolveAmbiguityDeviceConflict is end-to-end scenario 5: two
// devices each have their own leased GID; calling CreateQp for one device's
// real queue pair number but the other device's virtual GID is an
// ambiguous cross-device request and must be rejected, not silently
// attached to the wrong device.
func TestScenarioResolveAmbiguityDeviceConflict(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.LeaseDevice(testNetwork, 0xbbbb, "mlx5_1")
	s.CreatePort(testNetwork, 0xaaaa, 1, 1, 4, 0, 0)
	s.CreatePort(testNetwork, 0xbbbb, 1, 1, 4, 0, 0)

	realA := idcodec.GID{SubnetPrefix: 1, InterfaceID: 100}
	realB := idcodec.GID{SubnetPrefix: 1, InterfaceID: 200}
	virtA, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, realA)
	if err != nil {
		t.Fatalf("LeaseGid A: %v", err)
	}
	if _, err := s.LeaseGid(testNetwork, 0xbbbb, 1, 0, realB); err != nil {
		t.Fatalf("LeaseGid B: %v", err)
	}

	// Device B's real GID, paired with device A's virtual GID: ambiguous.
	_, err = s.CreateQp(testNetwork, realB, virtA, 7)
	var ce *CoordinatorError
	if !errors.As(err, &ce) || ce.Kind != KindDeviceConflict {
		t.Fatalf("CreateQp cross-device err = %v, want KindDeviceConflict", err)
	}

	// Device A's own real/virtual pairing is unambiguous and succeeds.
	if _, err := s.CreateQp(testNetwork, realA, virtA, 7); err != nil {
		t.Fatalf("CreateQp same-device: %v", err)
	}
}
