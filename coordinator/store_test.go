package coordinator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ovey-io/ovey/idcodec"
	"github.com/ovey-io/ovey/metrics"
)

const testNetwork = "11111111-1111-1111-1111-111111111111"

func TestLeaseDeviceUpdatesStoreSizeGauge(t *testing.T) {
	metrics.StoreSize.Reset()
	s := NewStore(Config{})

	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	if got := testutil.ToFloat64(metrics.StoreSize.WithLabelValues(testNetwork)); got != 1 {
		t.Errorf("StoreSize = %v, want 1", got)
	}

	if _, err := s.LeaseDevice(testNetwork, 0xbbbb, "mlx5_1"); err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	if got := testutil.ToFloat64(metrics.StoreSize.WithLabelValues(testNetwork)); got != 2 {
		t.Errorf("StoreSize = %v, want 2", got)
	}

	// A repeat lease of an already-known real GUID is idempotent and must
	// not double-count the gauge.
	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Fatalf("LeaseDevice (repeat): %v", err)
	}
	if got := testutil.ToFloat64(metrics.StoreSize.WithLabelValues(testNetwork)); got != 2 {
		t.Errorf("StoreSize after repeat lease = %v, want 2", got)
	}
}

func TestLeaseDeviceIdempotent(t *testing.T) {
	s := NewStore(Config{})
	virt1, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	if err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	virt2, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	if err != nil {
		t.Fatalf("LeaseDevice (repeat): %v", err)
	}
	if virt1 != virt2 {
		t.Errorf("LeaseDevice not idempotent: %#x != %#x", virt1, virt2)
	}
}

func TestLeaseDeviceRefreshesLeaseOnRepeat(t *testing.T) {
	s := NewStore(Config{})
	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	dev, err := s.Device(testNetwork, 0xaaaa)
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	firstLease := dev.Lease

	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Fatalf("LeaseDevice (repeat): %v", err)
	}
	dev, err = s.Device(testNetwork, 0xaaaa)
	if err != nil {
		t.Fatalf("Device (repeat): %v", err)
	}
	if dev.Lease.Before(firstLease) {
		t.Errorf("lease went backwards on repeat: %v before %v", dev.Lease, firstLease)
	}
}

func TestLeaseDeviceDistinctRealsGetDistinctVirtuals(t *testing.T) {
	s := NewStore(Config{})
	v1, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	if err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	v2, err := s.LeaseDevice(testNetwork, 0xbbbb, "mlx5_1")
	if err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	if v1 == v2 {
		t.Errorf("distinct real GUIDs got the same virtual GUID %#x", v1)
	}
}

func TestLeaseDeviceGuidNotAllowed(t *testing.T) {
	s := NewStore(Config{AllowedDeviceGuids: map[string][]string{
		testNetwork: {"0000:0000:0000:bbbb"},
	}})
	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err == nil {
		t.Error("expected error for disallowed device guid")
	}
	if _, err := s.LeaseDevice(testNetwork, 0xbbbb, "mlx5_1"); err != nil {
		t.Errorf("allow-listed guid should succeed: %v", err)
	}
}

func TestUnrestrictedNetworkAcceptsAnyDevice(t *testing.T) {
	s := NewStore(Config{AllowedDeviceGuids: map[string][]string{
		"other-network": {"0000:0000:0000:bbbb"},
	}})
	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Errorf("network absent from config should be unrestricted: %v", err)
	}
}

func TestCreatePortDensePortIDs(t *testing.T) {
	s := NewStore(Config{})
	if _, err := s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0"); err != nil {
		t.Fatalf("LeaseDevice: %v", err)
	}
	p1, err := s.CreatePort(testNetwork, 0xaaaa, 1, 0, 2, 0, 0)
	if err != nil {
		t.Fatalf("CreatePort: %v", err)
	}
	p2, err := s.CreatePort(testNetwork, 0xaaaa, 2, 0, 2, 0, 0)
	if err != nil {
		t.Fatalf("CreatePort: %v", err)
	}
	if p1.ID != 1 || p2.ID != 2 {
		t.Errorf("expected dense ids 1, 2; got %d, %d", p1.ID, p2.ID)
	}
}

func TestCreatePortIdempotent(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	p1, _ := s.CreatePort(testNetwork, 0xaaaa, 1, 0, 2, 0, 0)
	p2, err := s.CreatePort(testNetwork, 0xaaaa, 1, 0, 2, 0, 0)
	if err != nil {
		t.Fatalf("CreatePort (repeat): %v", err)
	}
	if p1.ID != p2.ID {
		t.Errorf("repeat CreatePort changed port id: %d != %d", p1.ID, p2.ID)
	}
}

func TestLeaseGidRespectsTableLen(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.CreatePort(testNetwork, 0xaaaa, 1, 0, 2, 0, 0)

	real := idcodec.GID{SubnetPrefix: 1, InterfaceID: 100}
	if _, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 5, real); err == nil {
		t.Error("expected error for gid index beyond gid_tbl_len")
	}
}

func TestLeaseGidRejectsReserved(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.CreatePort(testNetwork, 0xaaaa, 1, 0, 2, 0, 0)

	reserved := idcodec.GID{SubnetPrefix: 1, InterfaceID: 0}
	if _, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, reserved); err == nil {
		t.Error("expected error for reserved gid")
	}
}

func TestLeaseGidIdempotent(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.CreatePort(testNetwork, 0xaaaa, 1, 0, 2, 0, 0)

	real := idcodec.GID{SubnetPrefix: 1, InterfaceID: 100}
	v1, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, real)
	if err != nil {
		t.Fatalf("LeaseGid: %v", err)
	}
	v2, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, real)
	if err != nil {
		t.Fatalf("LeaseGid (repeat): %v", err)
	}
	if !v1.Equal(v2) {
		t.Errorf("LeaseGid not idempotent: %v != %v", v1, v2)
	}
}

func TestLeaseGidUniquenessAcrossDevices(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.LeaseDevice(testNetwork, 0xbbbb, "mlx5_1")
	s.CreatePort(testNetwork, 0xaaaa, 1, 0, 4, 0, 0)
	s.CreatePort(testNetwork, 0xbbbb, 1, 0, 4, 0, 0)

	real := idcodec.GID{SubnetPrefix: 1, InterfaceID: 100}
	if _, err := s.LeaseGid(testNetwork, 0xaaaa, 1, 0, real); err != nil {
		t.Fatalf("LeaseGid: %v", err)
	}
	if _, err := s.LeaseGid(testNetwork, 0xbbbb, 1, 0, real); err == nil {
		t.Error("expected conflict leasing the same real gid under a different device")
	}
}

func TestSetGidRequiresCoupledIndex(t *testing.T) {
	s := NewStore(Config{})
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	s.CreatePort(testNetwork, 0xaaaa, 1, 0, 4, 0, 0)

	real := idcodec.GID{SubnetPrefix: 1, InterfaceID: 1000}
	virt := idcodec.GID{SubnetPrefix: 1, InterfaceID: 2000}
	if err := s.SetGid(testNetwork, 0xaaaa, 1, 0, 1, real, virt); err == nil {
		t.Error("expected error for mismatched real/virt gid indices")
	}
}

func TestCreateQpAndResolveQp(t *testing.T) {
	s := NewStore(Config{})
	real := idcodec.GID{SubnetPrefix: 1, InterfaceID: 100}
	virt := idcodec.GID{SubnetPrefix: 1, InterfaceID: 200}

	virtQPN, err := s.CreateQp(testNetwork, real, virt, 7)
	if err != nil {
		t.Fatalf("CreateQp: %v", err)
	}
	gotGid, gotQPN, err := s.ResolveQp(testNetwork, virt, virtQPN)
	if err != nil {
		t.Fatalf("ResolveQp: %v", err)
	}
	if !gotGid.Equal(real) || gotQPN != 7 {
		t.Errorf("ResolveQp = (%v, %d), want (%v, 7)", gotGid, gotQPN, real)
	}
	if virtQPN < 32 || virtQPN >= 1<<24 {
		t.Errorf("virtual qpn = %d, want in [32, 2^24)", virtQPN)
	}
}

func TestResolveQpNotFound(t *testing.T) {
	s := NewStore(Config{})
	if _, _, err := s.ResolveQp(testNetwork, idcodec.GID{}, 42); err == nil {
		t.Error("expected error resolving an unknown queue pair")
	}
}

func TestDeviceNotFound(t *testing.T) {
	s := NewStore(Config{})
	if _, err := s.Device(testNetwork, 0xdead); err == nil {
		t.Error("expected error for unknown network")
	}
	s.LeaseDevice(testNetwork, 0xaaaa, "mlx5_0")
	if _, err := s.Device(testNetwork, 0xdead); err == nil {
		t.Error("expected error for unknown device")
	}
}
