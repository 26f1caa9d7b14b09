package bps

import "errors"

// MaxVarintLen is the largest number of bytes a BPS varint can occupy
// before it must have terminated. A uint64 needs at most ten 7-bit groups;
// bounding decode reads at this length prevents a corrupt or hostile patch
// from driving an unbounded read loop.
const MaxVarintLen = 10

// ErrVarintTruncated indicates a varint's terminating byte (high bit set)
// was never seen before the reader ran out of input or before MaxVarintLen
// bytes were consumed.
var ErrVarintTruncated = errors.New("bps: varint truncated")

// AppendUvarint appends the BPS varint encoding of v to buf and returns the
// extended slice.
//
// BPS varints are non-canonical: each byte contributes its low 7 bits times
// 128^k, and every byte except the terminating one additionally biases the
// value by 128^(k+1). The bias makes every non-negative integer have exactly
// one encoding, unlike plain base-128 continuation encoding where e.g. 0 and
// a padded "0 with a spurious continuation byte" would otherwise collide.
func AppendUvarint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b|0x80)
		}
		buf = append(buf, b)
		v--
	}
}

// EncodeUvarint returns the BPS varint encoding of v as a freshly allocated
// slice.
func EncodeUvarint(v uint64) []byte {
	return AppendUvarint(make([]byte, 0, MaxVarintLen), v)
}

// DecodeUvarint decodes a BPS varint from the front of data, returning the
// value and the number of bytes consumed. It returns ErrVarintTruncated if
// the terminating byte is not found within min(len(data), MaxVarintLen)
// bytes.
func DecodeUvarint(data []byte) (v uint64, n int, err error) {
	var scale uint64 = 1
	limit := len(data)
	if limit > MaxVarintLen {
		limit = MaxVarintLen
	}
	for n < limit {
		b := data[n]
		n++
		v += uint64(b&0x7f) * scale
		if b&0x80 != 0 {
			return v, n, nil
		}
		scale <<= 7
		v += scale
	}
	return 0, 0, ErrVarintTruncated
}

// A byteReader is the minimal interface DecodeUvarintReader needs; it
// mirrors io.ByteReader without importing io into a file that is otherwise
// pure computation.
type byteReader interface {
	ReadByte() (byte, error)
}

// DecodeUvarintReader decodes a BPS varint by pulling bytes one at a time
// from r, for callers streaming a patch rather than holding it fully
// buffered.
func DecodeUvarintReader(r byteReader) (uint64, error) {
	var v, scale uint64 = 0, 1
	for i := 0; i < MaxVarintLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, ErrVarintTruncated
		}
		v += uint64(b&0x7f) * scale
		if b&0x80 != 0 {
			return v, nil
		}
		scale <<= 7
		v += scale
	}
	return 0, ErrVarintTruncated
}

// AppendSignedOffset appends the BPS signed-offset encoding of d: the
// magnitude shifted left one bit, with the sign folded into the low bit
// (1 for negative). This is sign-magnitude on the low bit, not zigzag.
// +0 and -0 share the single encoding 0.
func AppendSignedOffset(buf []byte, d int64) []byte {
	var mag uint64
	var sign uint64
	if d < 0 {
		mag = uint64(-d)
		sign = 1
	} else {
		mag = uint64(d)
	}
	return AppendUvarint(buf, (mag<<1)|sign)
}

// EncodeSignedOffset returns the BPS signed-offset encoding of d as a
// freshly allocated slice.
func EncodeSignedOffset(d int64) []byte {
	return AppendSignedOffset(make([]byte, 0, MaxVarintLen), d)
}

// DecodeSignedOffset decodes a BPS signed-offset varint from the front of
// data, returning the signed value and the number of bytes consumed.
func DecodeSignedOffset(data []byte) (d int64, n int, err error) {
	u, n, err := DecodeUvarint(data)
	if err != nil {
		return 0, 0, err
	}
	mag := int64(u >> 1)
	if u&1 != 0 {
		return -mag, n, nil
	}
	return mag, n, nil
}
