// Package wire implements the length-prefixed framing of the upload body.
//
// The on-wire order is: a u32-prefixed JSON metadata frame, a u64-prefixed
// manifest frame, a u64-prefixed README frame (a zero length means the
// README is absent), and a u64-prefixed archive frame. All length prefixes
// are little-endian.
package wire

// ChunkSize is the read/write granularity for file frames.
const ChunkSize = 64 * 1024

// MaxMetadataBytes bounds the metadata frame. The advertised length is
// checked before any allocation so a hostile prefix cannot exhaust memory.
const MaxMetadataBytes = 1 << 20

// MaxMemoryFrameBytes bounds file frames decoded fully into memory, the
// manifest and the README. Archive frames stream to disk and carry no
// in-memory bound.
const MaxMemoryFrameBytes = 16 << 20

// metadataLenSize and frameLenSize are the prefix widths in bytes.
const (
	metadataLenSize = 4
	frameLenSize    = 8
)

// PackageMetadata is the first frame of an upload. Size and Checksum
// describe the archive frame that terminates the body.
type PackageMetadata struct {
	// Name is the canonical package name.
	Name string `json:"name"`
	// Version is the SemVer version string being published.
	Version string `json:"version"`
	// Checksum is the lowercase hex SHA-256 of the archive bytes.
	Checksum string `json:"checksum"`
	// Size is the archive length in bytes.
	Size uint64 `json:"size"`
}
