package domain

import (
	"fmt"
	"net"
	"strings"
)

// MAC is a 6-byte EUI-48 address in canonical lowercase colon-hex form,
// used as the identity component of every store key in this package.
type MAC string

// ParseMAC normalises any of the common textual MAC forms (colon, dash,
// bare hex) into the canonical MAC form.
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidArgument, s, err)
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("%w: %q: not an EUI-48 address", ErrInvalidArgument, s)
	}
	return MAC(hw.String()), nil
}

func (m MAC) String() string { return string(m) }

// Valid reports whether m is a well-formed, parseable MAC string.
func (m MAC) Valid() bool {
	_, err := ParseMAC(string(m))
	return err == nil
}
