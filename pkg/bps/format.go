package bps

// Magic is the 4-byte header every BPS v1 patch begins with.
var Magic = [4]byte{'B', 'P', 'S', '1'}

// Action identifies which of the four BPS command variants a command
// varint's low two bits select.
type Action byte

const (
	// SourceRead copies length bytes from source[outputPos:] to
	// target[outputPos:]. It never reads the source-relative cursor.
	SourceRead Action = 0
	// TargetRead copies length bytes stored inline in the patch, right
	// after the command varint, to target[outputPos:].
	TargetRead Action = 1
	// SourceCopy adjusts the source-relative cursor by a signed delta,
	// then copies length bytes from source at the new cursor position.
	SourceCopy Action = 2
	// TargetCopy is symmetric with SourceCopy but reads from target
	// instead of source; its read range may overlap its write range.
	TargetCopy Action = 3
)

func (a Action) String() string {
	switch a {
	case SourceRead:
		return "SourceRead"
	case TargetRead:
		return "TargetRead"
	case SourceCopy:
		return "SourceCopy"
	case TargetCopy:
		return "TargetCopy"
	default:
		return "InvalidAction"
	}
}

const (
	// TrailerSize is the 12 trailing bytes of a patch: three
	// little-endian CRC32 values (source, target, patch-so-far).
	TrailerSize = 12

	// MinPatchSize is the smallest a well-formed patch can be: a 4-byte
	// magic, three single-byte varints all encoding zero, zero commands,
	// and the 12-byte trailer.
	MinPatchSize = len(Magic) + 1 + 1 + 1 + TrailerSize

	// MaxRangeLength is the largest size any of source, target, or patch
	// may have. It matches the reference implementation's signed
	// 32-bit-address-space limit, not a full unsigned 32-bit range.
	MaxRangeLength = 1<<31 - 1

	// MinMatchLength is the shortest copy the encoder will ever emit
	// instead of a literal. A copy costs at least one command varint
	// plus one signed-offset varint; below this many matched bytes a
	// literal is always cheaper or equal.
	MinMatchLength = 4
)

// encodeCommand packs an action and a length (which must be >= 1) into the
// wire's command varint: ((length-1) << 2) | action.
func encodeCommand(action Action, length int) uint64 {
	return uint64(length-1)<<2 | uint64(action)
}

// decodeCommand splits a command varint into its action and length.
func decodeCommand(c uint64) (action Action, length int) {
	return Action(c & 3), int(c>>2) + 1
}
