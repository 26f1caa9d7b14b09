package bps

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 129, 255, 256, 1 << 20, 1 << 40, ^uint64(0) >> 1}
	for _, v := range values {
		buf := EncodeUvarint(v)
		got, n, err := DecodeUvarint(buf)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
		if n != len(buf) {
			t.Errorf("round trip %d: consumed %d bytes, encoded %d", v, n, len(buf))
		}
	}
}

func TestUvarintRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		v := rng.Uint64() >> uint(rng.Intn(64))
		buf := EncodeUvarint(v)
		got, n, err := DecodeUvarint(buf)
		if err != nil || got != v || n != len(buf) {
			t.Fatalf("round trip %d: got %d, n=%d, err=%v", v, got, n, err)
		}
	}
}

func TestUvarintTruncated(t *testing.T) {
	buf := EncodeUvarint(1 << 40)
	_, _, err := DecodeUvarint(buf[:len(buf)-1])
	if err != ErrVarintTruncated {
		t.Fatalf("expected ErrVarintTruncated, got %v", err)
	}
}

func TestUvarintAppend(t *testing.T) {
	var buf []byte
	buf = AppendUvarint(buf, 300)
	buf = AppendUvarint(buf, 4)
	v1, n1, err := DecodeUvarint(buf)
	if err != nil {
		t.Fatal(err)
	}
	v2, _, err := DecodeUvarint(buf[n1:])
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 300 || v2 != 4 {
		t.Errorf("got %d, %d", v1, v2)
	}
}

func TestSignedOffsetRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 127, -127, 1000000, -1000000, 1 << 30, -(1 << 30)}
	for _, v := range values {
		buf := EncodeSignedOffset(v)
		got, n, err := DecodeSignedOffset(buf)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
		if n != len(buf) {
			t.Errorf("round trip %d: consumed %d, encoded %d", v, n, len(buf))
		}
	}
}

func TestSignedOffsetRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10000; i++ {
		mag := int64(rng.Uint64() >> uint(rng.Intn(62)))
		if rng.Intn(2) == 0 {
			mag = -mag
		}
		buf := EncodeSignedOffset(mag)
		got, _, err := DecodeSignedOffset(buf)
		if err != nil || got != mag {
			t.Fatalf("round trip %d: got %d, err=%v", mag, got, err)
		}
	}
}

func TestSignedOffsetZeroIsPositive(t *testing.T) {
	// (0<<1)|0 must decode back to +0, not a negative-zero curiosity.
	buf := EncodeSignedOffset(0)
	got, _, err := DecodeSignedOffset(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("got %d", got)
	}
	if !bytes.Equal(buf, EncodeUvarint(0)) {
		t.Errorf("zero offset should encode identically to uvarint 0, got %x", buf)
	}
}
