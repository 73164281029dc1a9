package catalogue

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// CompositeKey derives the stable 8-hex-char venue identifier from an ordered
// list of fields. Fields are joined with "|", a delimiter unlikely to appear
// in the data, hashed with MD5 and truncated.
func CompositeKey(fields ...string) string {
	combined := strings.Join(fields, "|")
	sum := md5.Sum([]byte(combined))
	return hex.EncodeToString(sum[:])[:8]
}
