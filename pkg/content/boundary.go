package content

import (
	"crypto/rand"
	"encoding/hex"
)

// randomBoundary mirrors the teacher corpus's os.urandom(16).hex()
// multipart boundary generation.
func randomBoundary() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "go-httpcore-boundary"
	}
	return hex.EncodeToString(buf)
}
