package idcodec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GUIDStringPattern matches the canonical four-group colon-separated hex
// form of a GUID, e.g. "dead:beef:0bad:f00d".
var GUIDStringPattern = regexp.MustCompile(`^[0-9a-fA-F]{4}(:[0-9a-fA-F]{4}){3}$`)

// GUIDStringToU64 parses a canonical GUID string into a host-order u64. The
// colons are stripped and the remaining 16 hex digits are parsed as a single
// base-16 number, matching libibverbs' textual convention.
func GUIDStringToU64(s string) (uint64, error) {
	hexstr := strings.ReplaceAll(s, ":", "")
	v, err := strconv.ParseUint(hexstr, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("idcodec: invalid GUID string %q: %w", s, err)
	}
	return v, nil
}

// GUIDU64ToString formats a host-order u64 GUID into its canonical textual
// form: four lowercase hex groups of 16 bits each, most significant first,
// colon-separated.
func GUIDU64ToString(guid uint64) string {
	p0 := guid & 0xffff
	p1 := (guid >> 16) & 0xffff
	p2 := (guid >> 32) & 0xffff
	p3 := (guid >> 48) & 0xffff
	return fmt.Sprintf("%04x:%04x:%04x:%04x", p3, p2, p1, p0)
}
