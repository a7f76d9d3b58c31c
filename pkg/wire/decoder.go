package wire

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/depotworks/depot/pkg/errdefs"
)

// NewDecoder returns a Decoder reading frames from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decoder is a sequential frame reader over a streamed request body. Frames
// must be consumed in wire order; any short read surfaces as
// errdefs.ErrUnprocessable.
type Decoder struct {
	r io.Reader
}

// NextMetadata reads the u32-prefixed JSON metadata frame.
func (d *Decoder) NextMetadata() (*PackageMetadata, error) {
	prefix := make([]byte, metadataLenSize)
	if _, err := io.ReadFull(d.r, prefix); err != nil {
		return nil, errdefs.Newf(errdefs.ErrUnprocessable, "read metadata length: %v", err)
	}
	length := binary.LittleEndian.Uint32(prefix)
	if length > MaxMetadataBytes {
		return nil, errdefs.Newf(errdefs.ErrUnprocessable,
			"metadata frame of %d bytes exceeds the %d byte limit", length, MaxMetadataBytes)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, errdefs.Newf(errdefs.ErrUnprocessable, "read metadata frame of %d bytes: %v", length, err)
	}
	metadata := &PackageMetadata{}
	if err := json.Unmarshal(payload, metadata); err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "parse package metadata: %v", err)
	}
	return metadata, nil
}

// NextUint64 reads a u64 little-endian length prefix.
func (d *Decoder) NextUint64() (uint64, error) {
	prefix := make([]byte, frameLenSize)
	if _, err := io.ReadFull(d.r, prefix); err != nil {
		return 0, errdefs.Newf(errdefs.ErrUnprocessable, "read frame length: %v", err)
	}
	return binary.LittleEndian.Uint64(prefix), nil
}

// NextFileBytes reads a file frame of exactly length bytes into memory.
// Frames over MaxMemoryFrameBytes are rejected before anything is
// allocated or read.
func (d *Decoder) NextFileBytes(length uint64) ([]byte, error) {
	if length > MaxMemoryFrameBytes {
		return nil, errdefs.Newf(errdefs.ErrUnprocessable,
			"file frame of %d bytes exceeds the %d byte in-memory limit", length, MaxMemoryFrameBytes)
	}
	buf := make([]byte, 0, length)
	chunk := make([]byte, ChunkSize)
	var read uint64
	for read < length {
		want := uint64(ChunkSize)
		if remaining := length - read; remaining < want {
			want = remaining
		}
		n, err := io.ReadFull(d.r, chunk[:want])
		if err != nil {
			return nil, errdefs.Newf(errdefs.ErrUnprocessable,
				"read file frame: got %d of %d bytes: %v", read+uint64(n), length, err)
		}
		buf = append(buf, chunk[:n]...)
		read += uint64(n)
	}
	return buf, nil
}

// NextFile streams a file frame of exactly length bytes into w.
func (d *Decoder) NextFile(length uint64, w io.Writer) error {
	n, err := io.CopyN(w, d.r, int64(length))
	if err != nil {
		return errdefs.Newf(errdefs.ErrUnprocessable,
			"read file frame: got %d of %d bytes: %v", n, length, err)
	}
	return nil
}

// Drain consumes and discards the remainder of the stream so the underlying
// connection can be reused after a mid-body failure.
func (d *Decoder) Drain() error {
	_, err := io.Copy(io.Discard, d.r)
	return err
}
