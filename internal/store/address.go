package store

import "strings"

// NormalizeAddress lowercases addresses and hashes and ensures a 0x prefix.
func NormalizeAddress(addr string) string {
	s := strings.TrimSpace(strings.ToLower(addr))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}
