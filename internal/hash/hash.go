// Package hash provides the content digest primitive shared by the delta
// detector and the integrity monitor.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 hex digest of the given content.
func Sum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// SumAll returns a name→digest map for the given named contents.
func SumAll(contents map[string]string) map[string]string {
	out := make(map[string]string, len(contents))
	for name, content := range contents {
		out[name] = Sum(content)
	}
	return out
}
