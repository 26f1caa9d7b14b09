package bps

import (
	"bytes"
	"math/rand"
	"testing"
)

var allBackends = []SearchBackend{LinearBackend, RollingHashBackend, SuffixArrayBackend}

func backendName(b SearchBackend) string {
	switch b {
	case LinearBackend:
		return "linear"
	case SuffixArrayBackend:
		return "suffixarray"
	default:
		return "rollinghash"
	}
}

// roundTrip encodes source->target and decodes the result, failing the
// test on any error, mismatch, or unexpected warning.
func roundTrip(t *testing.T, source, target []byte, metadata string, backend SearchBackend) []byte {
	t.Helper()
	patch, err := Encode(source, target, metadata, EncodeOptions{Backend: backend})
	if err != nil {
		t.Fatalf("[%s] encode: %v", backendName(backend), err)
	}
	got, warnings, err := Decode(source, patch)
	if err != nil {
		t.Fatalf("[%s] decode: %v", backendName(backend), err)
	}
	if len(warnings) != 0 {
		t.Fatalf("[%s] unexpected warnings: %v", backendName(backend), warnings)
	}
	if !bytes.Equal(got, target) {
		t.Fatalf("[%s] round trip mismatch: got %d bytes, want %d bytes", backendName(backend), len(got), len(target))
	}
	return patch
}

// TestRoundTripScenarios covers a table of concrete encode/decode scenarios
// across every search backend.
func TestRoundTripScenarios(t *testing.T) {
	scenarios := []struct {
		name           string
		source, target []byte
	}{
		{"hello-world", []byte("Hello World"), []byte("Hello Warld")},
		{"repeated-abc", []byte("ABC"), bytes.Repeat([]byte("ABC"), 4)},
		{"zero-run-to-increment", bytes.Repeat([]byte{0}, 1000), incrementingBytes(1000)},
		{"large-single-byte-diff", incrementingBytes(8192), singleByteFlip(incrementingBytes(8192), 4096)},
		{"identical", []byte("no changes at all here"), []byte("no changes at all here")},
	}
	for _, sc := range scenarios {
		for _, backend := range allBackends {
			t.Run(sc.name+"/"+backendName(backend), func(t *testing.T) {
				roundTrip(t, sc.source, sc.target, "", backend)
			})
		}
	}
}

func incrementingBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func singleByteFlip(b []byte, pos int) []byte {
	out := append([]byte{}, b...)
	out[pos] ^= 0xff
	return out
}

// TestRoundTripRandom fuzzes the encode/decode pair with random source and
// target byte strings of varying similarity, across every backend.
func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for trial := 0; trial < 50; trial++ {
		sourceLen := rng.Intn(2000)
		source := randomBytes(rng, sourceLen)
		target := append([]byte{}, source...)
		edits := rng.Intn(20)
		for i := 0; i < edits; i++ {
			if len(target) == 0 {
				target = append(target, byte(rng.Intn(256)))
				continue
			}
			switch rng.Intn(3) {
			case 0:
				target[rng.Intn(len(target))] = byte(rng.Intn(256))
			case 1:
				pos := rng.Intn(len(target) + 1)
				target = append(target[:pos], append([]byte{byte(rng.Intn(256))}, target[pos:]...)...)
			case 2:
				if len(target) > 1 {
					pos := rng.Intn(len(target))
					target = append(target[:pos], target[pos+1:]...)
				}
			}
		}
		if len(target) == 0 {
			target = []byte{byte(trial)}
		}
		for _, backend := range allBackends {
			roundTrip(t, source, target, "", backend)
		}
	}
}

func TestEncodeEmptyTarget(t *testing.T) {
	_, err := Encode([]byte("source"), nil, "", EncodeOptions{})
	if err != ErrEmptyTarget {
		t.Fatalf("got %v, want ErrEmptyTarget", err)
	}
}

func TestEncodeEmptySource(t *testing.T) {
	roundTrip(t, nil, []byte("brand new content"), "", RollingHashBackend)
}

func TestEncodeMetadataRoundTrip(t *testing.T) {
	patch, err := Encode([]byte("src"), []byte("target data"), "unicode: héllo 世界", EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	target, warnings, err := Decode([]byte("src"), patch)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if string(target) != "target data" {
		t.Fatalf("got %q", target)
	}
}

// TestIdentityPatchIsSmall checks the identity-patch property: encoding a
// source against itself produces a patch whose size does not grow with the
// content's entropy, since it should resolve to essentially one SourceRead
// command plus the fixed header/trailer overhead.
func TestIdentityPatchIsSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := randomBytes(rng, 100000)
	patch := roundTrip(t, data, data, "", RollingHashBackend)
	if len(patch) > 256 {
		t.Fatalf("identity patch for %d bytes of random data was %d bytes, expected a small constant", len(data), len(patch))
	}
}

// TestPatchSelfCRCConstant checks every patch Encode produces satisfies the
// self-CRC identity independent of decoding.
func TestPatchSelfCRCConstant(t *testing.T) {
	patch, err := Encode([]byte("abc"), []byte("abcdef"), "", EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := CRC32(patch); got != SelfCRCConstant {
		t.Fatalf("got %08x, want %08x", got, SelfCRCConstant)
	}
}

// TestDecodeWrongSourceProducesWarningNotError mirrors scenario table row
// F end-to-end through Encode rather than a hand-built patch. The wrong
// source differs from the right one only in bytes 20-22 ("jum"), which the
// patch replaces with the literal "lea" rather than reading them, so the
// decoded target is still exact while the source CRC no longer matches.
func TestDecodeWrongSourceProducesWarningNotError(t *testing.T) {
	source := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick brown fox leaps over the lazy dog")
	patch, err := Encode(source, target, "", EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	wrongSource := append([]byte{}, source...)
	copy(wrongSource[20:], "JUM")
	got, warnings, err := Decode(wrongSource, patch)
	if err != nil {
		t.Fatalf("decode should not hard-fail on CRC mismatch: %v", err)
	}
	if !bytes.Equal(got, target) {
		t.Fatalf("decode with wrong source still produced wrong target")
	}
	if len(warnings) == 0 {
		t.Fatalf("expected at least a source CRC warning")
	}
}

func TestSourceCopyFindsSourceMatch(t *testing.T) {
	source := bytes.Repeat([]byte("filler-"), 100)
	target := append(append([]byte{}, source[50:120]...), []byte("brand-new-tail-content-not-in-source")...)
	roundTrip(t, source, target, "", RollingHashBackend)
}
