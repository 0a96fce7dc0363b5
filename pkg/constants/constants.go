// Package constants defines magic numbers and default values shared across
// the parser, pool, and network layers.
package constants

import "time"

// Connection and pool timeouts.
const (
	DefaultConnTimeout    = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	CleanupInterval       = 30 * time.Second
	DefaultKeepAlive      = 5 * time.Second
	MaxConnectionIdleTime = 5 * time.Minute
	MaxPoolConnections    = 100
)

// HTTP/1.1 framing limits.
const (
	MaxLineSize          = 4096             // max bytes scanned for a method/status/header line
	MaxContentLengthDigits = 20             // Content-Length: at most 20 digits, no sign
	MaxChunkSizeHexDigits  = 8              // chunk-size line: at most 8 hex digits
	MaxContentLength       = 1 << 40        // 1TB; the parser bounds Content-Length by MaxContentLengthDigits only
	BodySliceSize          = 64 * 1024      // send/drain body in 64KiB slices
	ReadAheadChunkSize      = 4096           // ReadAheadParser.Read fill granularity
)

// Buffer limits.
const (
	DefaultBodyMemLimit = 4 * 1024 * 1024 // 4MB in-memory threshold before disk spill
)
