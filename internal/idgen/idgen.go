// Package idgen generates random identifiers for archived records.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// WithPrefix returns prefix + 24 hex chars of randomness, e.g.
// "alert_3f1a9c...". Prefixes keep IDs greppable across tables.
func WithPrefix(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
