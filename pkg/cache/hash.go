package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a "stage:digest" cache key from a stage prefix and the
// inputs that determine the stage's output. The inputs are serialized to
// JSON before hashing, so any options struct with stable field order
// keys deterministically.
func hashKey(stage string, inputs ...any) string {
	data, _ := json.Marshal(inputs)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", stage, hex.EncodeToString(sum[:]))
}

// Hash returns the SHA-256 digest of data as a hex string. It is the
// content hash used for snapshot identity and view-graph keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
