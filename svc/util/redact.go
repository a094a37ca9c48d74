package util

import (
	"encoding/hex"
	"net"

	"golang.org/x/crypto/blake2b"
)

// ContentPrefixHash returns a short non-reversible fingerprint of the first
// 64 bytes of content, for correlating security log events without ever
// logging the content itself.
func ContentPrefixHash(content string) string {
	prefix := content
	if len(prefix) > 64 {
		prefix = prefix[:64]
	}
	sum := blake2b.Sum256([]byte(prefix))
	return hex.EncodeToString(sum[:8])
}

// ClientHash hashes a client identifier (normally the remote IP) with a
// server-side key so analytics can correlate without storing addresses.
// An empty key still yields a stable unkeyed hash, acceptable outside
// production (config validation enforces the key there).
func ClientHash(key []byte, clientID string) string {
	h, err := blake2b.New256(key)
	if err != nil {
		// blake2b only rejects keys longer than 64 bytes
		h, _ = blake2b.New256(nil)
	}
	h.Write([]byte(clientID))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// RedactIP zeroes the host portion of an address for log lines.
func RedactIP(ip string) string {
	host, _, err := net.SplitHostPort(ip)
	if err == nil {
		ip = host
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		sum := blake2b.Sum256([]byte(ip))
		return "hash:" + hex.EncodeToString(sum[:8])
	}
	if ipv4 := parsed.To4(); ipv4 != nil {
		ipv4[3] = 0
		return ipv4.String()
	}
	if ipv6 := parsed.To16(); ipv6 != nil {
		for i := 4; i < 16; i++ {
			ipv6[i] = 0
		}
		return ipv6.String()
	}
	sum := blake2b.Sum256([]byte(ip))
	return "hash:" + hex.EncodeToString(sum[:8])
}
