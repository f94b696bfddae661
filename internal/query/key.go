package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cache entry: an entity type followed by its ids, e.g.
// Key{"org", 5} or Key{"teams", "byOrg", 5}. Elements must be JSON encodable.
type Key []any

// Hash returns the canonical string form of the key. Keys that encode to
// the same JSON share an entry, so int64(5) and float64(5) are the same id.
func (k Key) Hash() string {
	parts := make([]string, len(k))
	for i, el := range k {
		parts[i] = encodeElement(el)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// HasPrefix reports whether k starts with all elements of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if encodeElement(k[i]) != encodeElement(prefix[i]) {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return k.Hash()
}

func encodeElement(el any) string {
	b, err := json.Marshal(el)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(el))
	}
	return string(b)
}
