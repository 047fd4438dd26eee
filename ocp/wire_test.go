package ocp

import (
	"testing"

	"github.com/go-test/deep"
)

func TestEncodeDecodeAttrRoundTrip(t *testing.T) {
	buf := encodeAttr(nil, 4, []byte("hello"))
	buf = encodeAttr(buf, 7, []byte{0xde, 0xad})
	attrs, err := parseAttrs(buf)
	if err != nil {
		t.Fatalf("parseAttrs: %v", err)
	}
	if len(attrs) != 2 {
		t.Fatalf("got %d attrs, want 2", len(attrs))
	}
	if attrs[0].Type != 4 || string(attrs[0].Data) != "hello" {
		t.Errorf("attr[0] = %+v", attrs[0])
	}
	if diff := deep.Equal(attrs[1].Data, []byte{0xde, 0xad}); attrs[1].Type != 7 || diff != nil {
		t.Errorf("attr[1] mismatch: %v", diff)
	}
}

func TestParseAttrsRejectsMalformedLength(t *testing.T) {
	buf := []byte{0xff, 0xff, 0x00, 0x00}
	if _, err := parseAttrs(buf); err == nil {
		t.Error("expected error for out-of-range attribute length")
	}
}

func TestParseAttrsEmpty(t *testing.T) {
	attrs, err := parseAttrs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 0 {
		t.Errorf("got %d attrs, want 0", len(attrs))
	}
}

func TestEncodeDecodeGenlMessageRoundTrip(t *testing.T) {
	var attrs []byte
	attrs = encodeAttr(attrs, attrDeviceName, []byte("mlx5_0\x00"))
	attrs = encodeAttr(attrs, attrNodeGuid, []byte("dead:beef:0000:0001\x00"))

	raw := encodeGenlMessage(42, nlmFRequest, 7, 1234, opCreateDevice, attrs)

	frame, err := decodeGenlMessage(raw)
	if err != nil {
		t.Fatalf("decodeGenlMessage: %v", err)
	}
	if frame.Header.Type != 42 || frame.Header.Seq != 7 || frame.Header.PID != 1234 {
		t.Errorf("header mismatch: %+v", frame.Header)
	}
	if frame.Cmd != opCreateDevice {
		t.Errorf("cmd = %d, want %d", frame.Cmd, opCreateDevice)
	}
	if len(frame.Attrs) != 2 {
		t.Fatalf("got %d attrs, want 2", len(frame.Attrs))
	}
	if frame.Attrs[0].Type != attrDeviceName || string(frame.Attrs[0].Data) != "mlx5_0\x00" {
		t.Errorf("attr[0] = %+v", frame.Attrs[0])
	}
}

func TestDecodeGenlMessageShortHeader(t *testing.T) {
	if _, err := decodeGenlMessage([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short header")
	}
}

func TestNlmsgerrErrno(t *testing.T) {
	raw := encodeNlmsghdr(nlmsghdr{Len: nlmsghdrLen + 4, Type: nlmsgError, Seq: 1, PID: 1})
	raw = append(raw, 0xfb, 0xff, 0xff, 0xff) // -5 little-endian
	errno, err := nlmsgerrErrno(raw)
	if err != nil {
		t.Fatalf("nlmsgerrErrno: %v", err)
	}
	if errno != -5 {
		t.Errorf("errno = %d, want -5", errno)
	}
}

func TestRtaAlign(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 4: 4, 5: 8, 8: 8}
	for in, want := range cases {
		if got := rtaAlign(in); got != want {
			t.Errorf("rtaAlign(%d) = %d, want %d", in, got, want)
		}
	}
}
