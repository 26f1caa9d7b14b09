package bps

import "errors"

// Hard errors abort encode or decode entirely and are returned to the
// caller. They are plain sentinels, following garland's errors.go pattern
// of one var block per subsystem, so callers can compare with errors.Is
// without the core allocating anything beyond the error value itself.
var (
	// ErrBadHeader is returned when the patch is shorter than
	// MinPatchSize, or its magic does not read "BPS1".
	ErrBadHeader = errors.New("bps: bad header")

	// ErrSizeMismatch is returned when the header's declared source size
	// does not match the length of the source actually supplied.
	ErrSizeMismatch = errors.New("bps: declared source size does not match supplied source")

	// ErrSizeOverflow is returned when a declared or actual size exceeds
	// MaxRangeLength.
	ErrSizeOverflow = errors.New("bps: size exceeds the maximum representable range length")

	// ErrTruncated is returned when a varint or a command's payload runs
	// past the end of the patch, or would read past the end of source,
	// or would write past the declared target length.
	ErrTruncated = errors.New("bps: patch truncated or command out of range")

	// ErrEmptyTarget is returned by Encode when the target is zero
	// length. The wire format does not forbid this, but this
	// implementation preserves the reference encoder's refusal to produce
	// a patch with no content to reconstruct.
	ErrEmptyTarget = errors.New("bps: target must not be empty")
)

// WarningKind identifies one of the soft, non-fatal integrity diagnostics
// Decode can surface alongside a fully reconstructed target.
type WarningKind int

const (
	// SourceCrcMismatch means the source supplied to Decode does not
	// match the CRC32 recorded in the patch header when it was created,
	// typically because the caller patched the wrong file.
	SourceCrcMismatch WarningKind = iota
	// TargetCrcMismatch means the bytes Decode produced do not match the
	// CRC32 the encoder recorded for its target (corruption, or a bug).
	TargetCrcMismatch
	// PatchCrcMismatch means the patch file itself fails the self-CRC
	// identity check (SelfCRCConstant), meaning the patch bytes were
	// corrupted in transit or at rest.
	PatchCrcMismatch
	// TargetSizeMismatch means the command stream produced a target shorter
	// than the header declared, because it terminated early (a truncated
	// stream that nonetheless parsed to the end of the patch). A command
	// that would write past the declared length is a hard ErrTruncated
	// instead.
	TargetSizeMismatch
)

func (k WarningKind) String() string {
	switch k {
	case SourceCrcMismatch:
		return "SourceCrcMismatch"
	case TargetCrcMismatch:
		return "TargetCrcMismatch"
	case PatchCrcMismatch:
		return "PatchCrcMismatch"
	case TargetSizeMismatch:
		return "TargetSizeMismatch"
	default:
		return "UnknownWarning"
	}
}

// Warning is one soft diagnostic produced during Decode. Message carries
// human-readable detail (e.g. expected-vs-actual values); Kind is what
// callers should switch on.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) Error() string {
	return w.Message
}
