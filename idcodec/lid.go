package idcodec

import (
	"fmt"
	"strconv"
	"strings"
)

// LIDStringToU16 parses the canonical "0x"-prefixed four-hex-digit LID
// string into a u16.
func LIDStringToU16(s string) (uint16, error) {
	hexstr := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(hexstr, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("idcodec: invalid LID string %q: %w", s, err)
	}
	return uint16(v), nil
}

// LIDU16ToString formats a LID as "0x" followed by four lowercase hex
// digits, e.g. "0xdead".
func LIDU16ToString(lid uint16) string {
	return fmt.Sprintf("0x%04x", lid)
}
