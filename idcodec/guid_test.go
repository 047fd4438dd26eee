package idcodec

import "testing"

func TestGUIDStringToU64(t *testing.T) {
	got, err := GUIDStringToU64("dead:beef:0000:0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint64(0xdeadbeef00000000); got != want {
		t.Errorf("got %#x, want %#x", got, want)
	}
}

func TestGUIDU64ToString(t *testing.T) {
	got := GUIDU64ToString(0xdeadbeef00000000)
	if want := "dead:beef:0000:0000"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGUIDRoundTrip(t *testing.T) {
	cases := []string{
		"dead:beef:0bad:f00d",
		"0000:0000:0000:0000",
		"ffff:ffff:ffff:ffff",
		"0001:0203:0405:0607",
	}
	for _, s := range cases {
		v, err := GUIDStringToU64(s)
		if err != nil {
			t.Fatalf("GUIDStringToU64(%q): %v", s, err)
		}
		got := GUIDU64ToString(v)
		if got != s {
			t.Errorf("round trip mismatch: %q -> %#x -> %q", s, v, got)
		}
	}
}

func TestGUIDStringToU64Invalid(t *testing.T) {
	if _, err := GUIDStringToU64("not-a-guid"); err == nil {
		t.Error("expected error for malformed GUID string")
	}
}

func TestGUIDStringPattern(t *testing.T) {
	if !GUIDStringPattern.MatchString("dead:beef:0bad:f00d") {
		t.Error("canonical GUID string should match pattern")
	}
	if GUIDStringPattern.MatchString("dead:beef:0bad") {
		t.Error("truncated GUID string should not match pattern")
	}
}
