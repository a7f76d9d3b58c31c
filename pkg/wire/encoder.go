package wire

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/depotworks/depot/pkg/errdefs"
)

// NewEncoder returns an Encoder writing frames to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encoder writes frames in wire order. It is the client-side counterpart of
// Decoder.
type Encoder struct {
	w io.Writer
}

// WriteMetadata writes the u32-prefixed JSON metadata frame.
func (e *Encoder) WriteMetadata(metadata *PackageMetadata) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	prefix := make([]byte, metadataLenSize)
	binary.LittleEndian.PutUint32(prefix, uint32(len(payload)))
	if _, err := e.w.Write(prefix); err != nil {
		return err
	}
	_, err = e.w.Write(payload)
	return err
}

// WriteUint64 writes a u64 little-endian length prefix.
func (e *Encoder) WriteUint64(v uint64) error {
	prefix := make([]byte, frameLenSize)
	binary.LittleEndian.PutUint64(prefix, v)
	_, err := e.w.Write(prefix)
	return err
}

// WriteFileBytes writes a length-prefixed file frame from memory.
func (e *Encoder) WriteFileBytes(data []byte) error {
	if err := e.WriteUint64(uint64(len(data))); err != nil {
		return err
	}
	_, err := e.w.Write(data)
	return err
}

// WriteFile writes a length-prefixed file frame streamed from r. The caller
// supplies the exact length, allowing the frame to be emitted before the
// reader has been fully consumed.
func (e *Encoder) WriteFile(length uint64, r io.Reader) error {
	if err := e.WriteUint64(length); err != nil {
		return err
	}
	n, err := io.Copy(e.w, r)
	if err != nil {
		return err
	}
	if uint64(n) != length {
		return errdefs.Newf(errdefs.ErrInvalidParameter,
			"file frame advertised %d bytes but source yielded %d", length, n)
	}
	return nil
}
