package idcodec

import "testing"

func TestGIDIsReserved(t *testing.T) {
	g := GID{SubnetPrefix: 0, InterfaceID: 0}
	if !g.IsReserved() {
		t.Error("GID with interface id 0 should be reserved")
	}
	if (GID{InterfaceID: 1}).IsReserved() {
		t.Error("GID with interface id 1 should not be reserved")
	}
}

func TestGIDIsLoopback(t *testing.T) {
	if !(GID{InterfaceID: 1}).IsLoopback() {
		t.Error("GID with interface id 1 should be loopback")
	}
	if (GID{InterfaceID: 2}).IsLoopback() {
		t.Error("GID with interface id 2 should not be loopback")
	}
}

func TestGIDEqual(t *testing.T) {
	a := GID{SubnetPrefix: 1, InterfaceID: 2}
	b := GID{SubnetPrefix: 1, InterfaceID: 2}
	c := GID{SubnetPrefix: 1, InterfaceID: 3}
	if !a.Equal(b) {
		t.Error("identical GIDs should be equal")
	}
	if a.Equal(c) {
		t.Error("different GIDs should not be equal")
	}
}

func TestGIDString(t *testing.T) {
	g := GID{SubnetPrefix: 0, InterfaceID: 0}
	if got := g.String(); got == "" {
		t.Error("GID string form should not be empty")
	}
}
