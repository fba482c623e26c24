package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const displayHashLen = 12

// ComputeHash produces the content-integrity digest for a journal entry:
// the payload canonicalized with recursively sorted keys, concatenated with
// the entry timestamp, hashed with SHA-256. Identical payloads always yield
// identical digests regardless of key insertion order.
func ComputeHash(payload map[string]any, timestamp time.Time) string {
	var b strings.Builder
	writeCanonical(&b, payload)
	b.WriteByte('|')
	b.WriteString(timestamp.UTC().Format(time.RFC3339Nano))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// TruncateHash shortens a full digest for display purposes.
func TruncateHash(hash string) string {
	if len(hash) <= displayHashLen {
		return hash
	}
	return hash[:displayHashLen]
}

func writeCanonical(b *strings.Builder, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONScalar(b, k)
			b.WriteByte(':')
			writeCanonical(b, v[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		writeJSONScalar(b, v)
	}
}

func writeJSONScalar(b *strings.Builder, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		// Non-serializable values cannot occur for payloads that came through
		// Payload.Fields(), which round-trips through encoding/json.
		b.WriteString(fmt.Sprintf("%q", fmt.Sprintf("%v", value)))
		return
	}
	b.Write(raw)
}
