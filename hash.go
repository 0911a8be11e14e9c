package dobhasi

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// BatchKey identifies a set of source texts bound for one target language.
// The texts are sorted so that the same set requested in a different order
// shares one in-flight call.
func BatchKey(lang Language, texts []string) string {
	sorted := make([]string, len(texts))
	copy(sorted, texts)
	sort.Strings(sorted)
	return string(lang) + ":" + strings.Join(sorted, BatchSeparator)
}

// IsBlank reports whether text is empty or whitespace only. Blank texts are
// never translated or cached.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
