// Package decoder reconstructs ZooKeeper client/server messages from the
// raw byte streams of one TCP connection and reports them to an injected
// observer. It is purely passive: it never alters the bytes it is shown.
package decoder

import "github.com/pkg/errors"

// Buffer is the abstract byte sequence the decoder reads from. The capture
// or proxy integration hands the decoder whatever container holds the
// connection's buffered bytes; OwnedBuffer is the concrete form used for
// residual data between feed cycles and by callers that own their bytes.
type Buffer interface {
	// Length reports the number of readable bytes.
	Length() int64
	// CopyOut copies len(dst) bytes starting at start into dst without
	// consuming them. It fails if the range overruns the buffer.
	CopyOut(start int64, dst []byte) error
	// Prepend moves the contents of other to the front of this buffer,
	// draining other.
	Prepend(other *OwnedBuffer)
	// Drain discards up to n bytes from the front.
	Drain(n int64)
	// Append adds a copy of p to the end.
	Append(p []byte)
}

// OwnedBuffer is a Buffer over a byte slice it owns.
type OwnedBuffer struct {
	data []byte
}

// NewOwnedBuffer returns an OwnedBuffer holding a copy of p.
func NewOwnedBuffer(p []byte) *OwnedBuffer {
	b := &OwnedBuffer{}
	b.Append(p)
	return b
}

// Length reports the number of readable bytes.
func (b *OwnedBuffer) Length() int64 { return int64(len(b.data)) }

// CopyOut copies len(dst) bytes starting at start into dst.
func (b *OwnedBuffer) CopyOut(start int64, dst []byte) error {
	if start < 0 || start+int64(len(dst)) > int64(len(b.data)) {
		return errors.Errorf("copy out of [%d, %d) overruns buffer of %d bytes",
			start, start+int64(len(dst)), len(b.data))
	}
	copy(dst, b.data[start:])
	return nil
}

// Prepend moves the contents of other to the front of b, draining other.
func (b *OwnedBuffer) Prepend(other *OwnedBuffer) {
	if other.Length() == 0 {
		return
	}
	merged := make([]byte, 0, len(other.data)+len(b.data))
	merged = append(merged, other.data...)
	merged = append(merged, b.data...)
	b.data = merged
	other.data = nil
}

// Drain discards up to n bytes from the front.
func (b *OwnedBuffer) Drain(n int64) {
	if n >= int64(len(b.data)) {
		b.data = nil
		return
	}
	if n > 0 {
		b.data = b.data[n:]
	}
}

// Append adds a copy of p to the end.
func (b *OwnedBuffer) Append(p []byte) {
	b.data = append(b.data, p...)
}
