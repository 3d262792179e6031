package decoder

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/jeffbean/zktap/proto"
)

// fieldReader reads big-endian wire primitives at an explicit absolute
// offset, advancing both the caller's offset and an internal cursor. The
// cursor is reset per message and bounded by the configured max packet
// size, so a single message can never consume more than its allowance no
// matter where it sits in the containing chunk.
type fieldReader struct {
	maxLen int64
	cursor int64
}

func (r *fieldReader) reset() { r.cursor = 0 }

func (r *fieldReader) ensure(data Buffer, offset, width int64) error {
	if r.cursor+width > r.maxLen {
		return errors.Errorf("field of %d bytes exceeds message allowance of %d", width, r.maxLen)
	}
	if offset < 0 || offset+width > data.Length() {
		return errors.Errorf("field of %d bytes at offset %d overruns buffer of %d bytes",
			width, offset, data.Length())
	}
	return nil
}

func (r *fieldReader) advance(offset *int64, width int64) {
	*offset += width
	r.cursor += width
}

func (r *fieldReader) peekInt32(data Buffer, offset *int64) (int32, error) {
	if err := r.ensure(data, *offset, proto.IntLength); err != nil {
		return 0, err
	}
	var raw [proto.IntLength]byte
	if err := data.CopyOut(*offset, raw[:]); err != nil {
		return 0, err
	}
	r.advance(offset, proto.IntLength)
	return int32(binary.BigEndian.Uint32(raw[:])), nil
}

func (r *fieldReader) peekInt64(data Buffer, offset *int64) (int64, error) {
	if err := r.ensure(data, *offset, proto.LongLength); err != nil {
		return 0, err
	}
	var raw [proto.LongLength]byte
	if err := data.CopyOut(*offset, raw[:]); err != nil {
		return 0, err
	}
	r.advance(offset, proto.LongLength)
	return int64(binary.BigEndian.Uint64(raw[:])), nil
}

func (r *fieldReader) peekBool(data Buffer, offset *int64) (bool, error) {
	if err := r.ensure(data, *offset, proto.BoolLength); err != nil {
		return false, err
	}
	var raw [proto.BoolLength]byte
	if err := data.CopyOut(*offset, raw[:]); err != nil {
		return false, err
	}
	r.advance(offset, proto.BoolLength)
	return raw[0] != 0, nil
}

// peekString reads a signed length prefix then that many raw bytes. A
// negative length means an absent string, historically allowed on the
// wire; nothing is copied for it.
func (r *fieldReader) peekString(data Buffer, offset *int64) (string, error) {
	slen, err := r.peekInt32(data, offset)
	if err != nil {
		return "", err
	}
	if slen < 0 {
		return "", nil
	}
	if err := r.ensure(data, *offset, int64(slen)); err != nil {
		return "", err
	}
	raw := make([]byte, slen)
	if err := data.CopyOut(*offset, raw); err != nil {
		return "", err
	}
	r.advance(offset, int64(slen))
	return string(raw), nil
}

// skip advances past n bytes without materializing them.
func (r *fieldReader) skip(data Buffer, n int64, offset *int64) error {
	if err := r.ensure(data, *offset, n); err != nil {
		return err
	}
	r.advance(offset, n)
	return nil
}
