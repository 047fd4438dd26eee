package kreq

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/ovey-io/ovey/idcodec"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{
			Cmd:     CmdLeaseDevice,
			Seq:     1,
			Network: [16]byte{1, 2, 3},
			Device:  [16]byte{4, 5, 6},
			Query:   LeaseDeviceQuery{GUID: 0xdeadbeef0badf00d},
		},
		{
			Cmd:   CmdLeaseGid,
			Seq:   2,
			Query: LeaseGidQuery{Idx: 3, Gid: idcodec.GID{SubnetPrefix: 1, InterfaceID: 2}},
		},
		{
			Cmd:   CmdResolveQpGid,
			Seq:   3,
			Query: ResolveQpGidQuery{Gid: idcodec.GID{SubnetPrefix: 9, InterfaceID: 8}, QPN: 77},
		},
		{
			Cmd: CmdSetGid,
			Seq: 4,
			Query: SetGidQuery{
				RealIdx: 1, VirtIdx: 2,
				Real: idcodec.GID{SubnetPrefix: 1, InterfaceID: 1},
				Virt: idcodec.GID{SubnetPrefix: 2, InterfaceID: 2},
			},
		},
		{
			Cmd:   CmdCreatePort,
			Seq:   5,
			Port:  1,
			Query: CreatePortQuery{Port: 1, PkeyTblLen: 16, GidTblLen: 8, CoreCapFlags: 0xff, MaxMadSize: 256},
		},
		{
			Cmd:   CmdSetPortAttr,
			Seq:   6,
			Query: SetPortAttrQuery{Lid: 0xdead},
		},
		{
			Cmd:   CmdCreateQp,
			Seq:   7,
			Query: CreateQpQuery{QPN: 99},
		},
	}
	for _, want := range cases {
		buf, err := EncodeRequest(want)
		if err != nil {
			t.Fatalf("EncodeRequest(%v): %v", want.Cmd, err)
		}
		if len(buf) != PacketSize {
			t.Fatalf("encoded packet is %d bytes, want %d", len(buf), PacketSize)
		}
		got, err := DecodeRequest(buf)
		if err != nil {
			t.Fatalf("DecodeRequest: %v", err)
		}
		if diff := deep.Equal(got, want); diff != nil {
			t.Errorf("round trip mismatch for %v: %v", want.Cmd, diff)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []Response{
		{Cmd: CmdLeaseDevice, Seq: 1, Reply: LeaseDeviceReply{GUID: 0xdeadbeef0badf00d}},
		{Cmd: CmdLeaseGid, Seq: 2, Reply: LeaseGidReply{Idx: 3, Gid: idcodec.GID{SubnetPrefix: 1, InterfaceID: 2}}},
		{Cmd: CmdResolveQpGid, Seq: 3, Reply: ResolveQpGidReply{Gid: idcodec.GID{SubnetPrefix: 9, InterfaceID: 8}, QPN: 77}},
		{Cmd: CmdSetGid, Seq: 4, Reply: SetGidReply{
			RealIdx: 1, VirtIdx: 2,
			Real: idcodec.GID{SubnetPrefix: 1, InterfaceID: 1},
			Virt: idcodec.GID{SubnetPrefix: 2, InterfaceID: 2},
		}},
		{Cmd: CmdCreatePort, Seq: 5, Reply: CreatePortReply{Port: 1, PkeyTblLen: 16, GidTblLen: 8, CoreCapFlags: 0xff, MaxMadSize: 256}},
		{Cmd: CmdSetPortAttr, Seq: 6, Reply: SetPortAttrReply{Lid: 0xdead}},
		{Cmd: CmdCreateQp, Seq: 7, Reply: CreateQpReply{QPN: 99}},
	}
	for _, want := range cases {
		buf, err := EncodeResponse(want)
		if err != nil {
			t.Fatalf("EncodeResponse(%v): %v", want.Cmd, err)
		}
		got, err := DecodeResponse(buf)
		if err != nil {
			t.Fatalf("DecodeResponse: %v", err)
		}
		if diff := deep.Equal(got, want); diff != nil {
			t.Errorf("round trip mismatch for %v: %v", want.Cmd, diff)
		}
	}
}

func TestDecodeRequestShortPacket(t *testing.T) {
	if _, err := DecodeRequest(make([]byte, 10)); err == nil {
		t.Error("expected error for short packet")
	}
}

func TestDecodeRequestUnknownCmd(t *testing.T) {
	buf := make([]byte, PacketSize)
	buf[0] = 0xff
	buf[1] = 0xff
	if _, err := DecodeRequest(buf); err == nil {
		t.Error("expected error for unknown cmd_type")
	}
}

func TestGIDWireByteOrder(t *testing.T) {
	g := idcodec.GID{SubnetPrefix: 0x0102030405060708, InterfaceID: 0x1112131415161718}
	buf := make([]byte, 16)
	putGID(buf, g)
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
	if diff := deep.Equal(buf, want); diff != nil {
		t.Errorf("wire bytes mismatch: %v", diff)
	}
	if got := getGID(buf); got != g {
		t.Errorf("getGID(putGID(g)) = %+v, want %+v", got, g)
	}
}
