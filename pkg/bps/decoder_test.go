package bps

import (
	"bytes"
	"testing"
)

// buildPatch hand-assembles a minimal well-formed patch from a command
// list, computing a correct trailer, so decoder tests can exercise exact
// wire shapes without going through Encode.
func buildPatch(t *testing.T, source, target []byte, metadata string, commands func(patch []byte) []byte) []byte {
	t.Helper()
	patch := append([]byte{}, Magic[:]...)
	patch = AppendUvarint(patch, uint64(len(source)))
	patch = AppendUvarint(patch, uint64(len(target)))
	patch = AppendUvarint(patch, uint64(len(metadata)))
	patch = append(patch, metadata...)
	patch = commands(patch)
	patch = AppendCRC32LE(patch, source)
	patch = AppendCRC32LE(patch, target)
	patch = AppendCRC32LE(patch, patch)
	return patch
}

func TestDecodeBadMagic(t *testing.T) {
	patch := []byte("XPS1\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	_, _, err := Decode(nil, patch)
	if err != ErrBadHeader {
		t.Fatalf("got %v, want ErrBadHeader", err)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, _, err := Decode(nil, []byte("BPS1"))
	if err != ErrBadHeader {
		t.Fatalf("got %v, want ErrBadHeader", err)
	}
}

func TestDecodeSourceSizeMismatch(t *testing.T) {
	target := []byte("hello")
	source := []byte("source")
	patch := buildPatch(t, source, target, "", func(p []byte) []byte {
		return append(AppendUvarint(p, encodeCommand(TargetRead, len(target))), target...)
	})
	_, _, err := Decode([]byte("wrong size"), patch)
	if err != ErrSizeMismatch {
		t.Fatalf("got %v, want ErrSizeMismatch", err)
	}
}

// TestDecodeIdentityViaSourceRead exercises scenario table row E: source
// equal to target decodes via a single SourceRead command with no
// warnings.
func TestDecodeIdentityViaSourceRead(t *testing.T) {
	data := bytes.Repeat([]byte("identity-payload-"), 50)
	patch := buildPatch(t, data, data, "", func(p []byte) []byte {
		return AppendUvarint(p, encodeCommand(SourceRead, len(data)))
	})
	got, warnings, err := Decode(data, patch)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("target mismatch")
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

// TestDecodeTargetCopyOverlap exercises scenario table row B: a run-length
// style repeat produced entirely from a TargetCopy whose read window
// overlaps its own write window.
func TestDecodeTargetCopyOverlap(t *testing.T) {
	source := []byte("ABC")
	target := []byte("ABCABCABCABC")

	patch := buildPatch(t, source, target, "", func(p []byte) []byte {
		p = AppendUvarint(p, encodeCommand(TargetRead, 3))
		p = append(p, "ABC"...)
		p = AppendUvarint(p, encodeCommand(TargetCopy, len(target)-3))
		p = AppendSignedOffset(p, 0) // cursor starts at 0, read from position 0
		return p
	})

	got, warnings, err := Decode(source, patch)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, target) {
		t.Fatalf("got %q, want %q", got, target)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

// TestDecodeTargetCopyRejectsReadAtOutputPos ensures a TargetCopy whose
// decoded read cursor lands exactly at the current write position (not
// behind it) is rejected: nothing has been written there yet.
func TestDecodeTargetCopyRejectsReadAtOutputPos(t *testing.T) {
	source := []byte{}
	target := []byte("AAAA")
	patch := buildPatch(t, source, target, "", func(p []byte) []byte {
		p = AppendUvarint(p, encodeCommand(TargetCopy, 4))
		p = AppendSignedOffset(p, 0) // cursor 0 == outputPos 0: illegal
		return p
	})
	_, _, err := Decode(source, patch)
	if err != ErrTruncated {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

// TestDecodeCRCWarnings exercises scenario table row F: decoding against
// the wrong source still produces a target, flagged with a warning rather
// than a hard error.
func TestDecodeCRCWarnings(t *testing.T) {
	rightSource := []byte("the original source bytes")
	wrongSource := []byte(bytes.Repeat([]byte("X"), len(rightSource)))
	target := []byte("the original targeted bytes")

	patch := buildPatch(t, rightSource, target, "", func(p []byte) []byte {
		return append(AppendUvarint(p, encodeCommand(TargetRead, len(target))), target...)
	})

	got, warnings, err := Decode(wrongSource, patch)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, target) {
		t.Fatalf("decode with mismatched source CRC should still produce target")
	}
	found := false
	for _, w := range warnings {
		if w.Kind == SourceCrcMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SourceCrcMismatch warning, got %v", warnings)
	}
}

// TestDecodeTargetCopyRunLength checks run-length expansion: a TargetCopy
// of length k that reads from the single seed byte v right behind the write
// cursor produces k copies of v. The target cursor starts at 0, which is
// where the seed byte sits, so the delta is 0.
func TestDecodeTargetCopyRunLength(t *testing.T) {
	source := []byte{}
	const k = 37
	target := append([]byte{'v'}, bytes.Repeat([]byte{'v'}, k)...)

	patch := buildPatch(t, source, target, "", func(p []byte) []byte {
		p = AppendUvarint(p, encodeCommand(TargetRead, 1))
		p = append(p, 'v')
		p = AppendUvarint(p, encodeCommand(TargetCopy, k))
		p = AppendSignedOffset(p, 0) // cursor 0 is the seed byte, one behind outputPos 1
		return p
	})

	got, warnings, err := Decode(source, patch)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !bytes.Equal(got, target) {
		t.Fatalf("got %q, want %q", got, target)
	}
}

func TestDecodeSourceReadOutOfRange(t *testing.T) {
	source := []byte("short")
	target := []byte("this needs more than five bytes")
	patch := buildPatch(t, source, target, "", func(p []byte) []byte {
		return AppendUvarint(p, encodeCommand(SourceRead, len(target)))
	})
	_, _, err := Decode(source, patch)
	if err != ErrTruncated {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestDecodeEmptyPatchTarget(t *testing.T) {
	source := []byte("x")
	patch := buildPatch(t, source, []byte{}, "", func(p []byte) []byte { return p })
	got, warnings, err := Decode(source, patch)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %q, want empty", got)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}
