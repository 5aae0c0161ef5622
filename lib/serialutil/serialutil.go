package serialutil

import "strings"

// Normalize canonicalizes a device serial number so serials coming from
// different systems can be compared for equality. Utility portals and
// telemetry vendors pad serials with leading zeros inconsistently, so the
// canonical form strips them.
//
// An empty (or all-whitespace) input stays empty, which is distinct from
// a serial made up entirely of zeros, which normalizes to "0".
func Normalize(serial string) string {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return ""
	}

	stripped := strings.TrimLeft(serial, "0")
	if stripped == "" {
		return "0"
	}
	return stripped
}

func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
