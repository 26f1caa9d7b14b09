package bps

import "fmt"

// Decode reconstructs target from source and a BPS v1 patch. It returns the
// reconstructed target along with any soft warnings (CRC or size
// mismatches) even on success; only structurally invalid patches return a
// non-nil error.
func Decode(source, patch []byte) (target []byte, warnings []Warning, err error) {
	if len(patch) < MinPatchSize {
		return nil, nil, ErrBadHeader
	}
	if patch[0] != Magic[0] || patch[1] != Magic[1] || patch[2] != Magic[2] || patch[3] != Magic[3] {
		return nil, nil, ErrBadHeader
	}

	p := len(Magic)
	sourceSize, n, ok := readUvarint(patch, p)
	if !ok {
		return nil, nil, ErrTruncated
	}
	p += n
	targetSize, n, ok := readUvarint(patch, p)
	if !ok {
		return nil, nil, ErrTruncated
	}
	p += n
	metadataSize, n, ok := readUvarint(patch, p)
	if !ok {
		return nil, nil, ErrTruncated
	}
	p += n

	if sourceSize > MaxRangeLength || targetSize > MaxRangeLength {
		return nil, nil, ErrSizeOverflow
	}
	if metadataSize > uint64(len(patch)) {
		return nil, nil, ErrTruncated
	}
	p += int(metadataSize)
	if p > len(patch)-TrailerSize {
		return nil, nil, ErrTruncated
	}

	if uint64(len(source)) != sourceSize {
		return nil, nil, ErrSizeMismatch
	}

	commandsEnd := len(patch) - TrailerSize
	target = make([]byte, 0, targetSize)

	var sourceRelOffset, targetRelOffset int64
	var outputPos int

	for p < commandsEnd {
		c, n, ok := readUvarint(patch, p)
		if !ok {
			return nil, nil, ErrTruncated
		}
		p += n

		action, length := decodeCommand(c)
		if outputPos+length > int(targetSize) {
			return nil, nil, ErrTruncated
		}

		switch action {
		case SourceRead:
			if outputPos+length > len(source) {
				return nil, nil, ErrTruncated
			}
			target = append(target, source[outputPos:outputPos+length]...)

		case TargetRead:
			if p+length > commandsEnd {
				return nil, nil, ErrTruncated
			}
			target = append(target, patch[p:p+length]...)
			p += length

		case SourceCopy:
			d, n, ok := readSignedOffset(patch, p)
			if !ok {
				return nil, nil, ErrTruncated
			}
			p += n
			sourceRelOffset += d
			if sourceRelOffset < 0 || sourceRelOffset+int64(length) > int64(len(source)) {
				return nil, nil, ErrTruncated
			}
			start := sourceRelOffset
			target = append(target, source[start:start+int64(length)]...)
			sourceRelOffset += int64(length)

		case TargetCopy:
			d, n, ok := readSignedOffset(patch, p)
			if !ok {
				return nil, nil, ErrTruncated
			}
			p += n
			targetRelOffset += d
			// The read start must fall strictly behind the write
			// cursor: reading at or beyond outputPos would read
			// bytes not yet written. Reading behind the cursor is
			// fine even when the read window's *end* runs past
			// outputPos, since that overlap is what produces
			// run-length repetition, handled by
			// copyTargetOverlapping below.
			if targetRelOffset < 0 || targetRelOffset >= int64(outputPos) {
				return nil, nil, ErrTruncated
			}
			copyTargetOverlapping(&target, targetRelOffset, length)
			targetRelOffset += int64(length)
		}

		outputPos += length
	}

	trailer := patch[commandsEnd:]
	wantSourceCRC := readUint32LE(trailer[0:4])
	wantTargetCRC := readUint32LE(trailer[4:8])

	if gotSourceCRC := CRC32(source); gotSourceCRC != wantSourceCRC {
		warnings = append(warnings, Warning{
			Kind: SourceCrcMismatch,
			Message: fmt.Sprintf(
				"bps: source CRC32 %08x does not match header value %08x", gotSourceCRC, wantSourceCRC),
		})
	}
	if gotTargetCRC := CRC32(target); gotTargetCRC != wantTargetCRC {
		warnings = append(warnings, Warning{
			Kind: TargetCrcMismatch,
			Message: fmt.Sprintf(
				"bps: target CRC32 %08x does not match header value %08x", gotTargetCRC, wantTargetCRC),
		})
	}
	if selfCRC := CRC32(patch); selfCRC != SelfCRCConstant {
		warnings = append(warnings, Warning{
			Kind: PatchCrcMismatch,
			Message: fmt.Sprintf(
				"bps: patch self-CRC32 %08x does not match the fixed constant %08x", selfCRC, SelfCRCConstant),
		})
	}
	if uint64(outputPos) != targetSize {
		warnings = append(warnings, Warning{
			Kind: TargetSizeMismatch,
			Message: fmt.Sprintf(
				"bps: produced %d target bytes, header declared %d", outputPos, targetSize),
		})
	}

	return target, warnings, nil
}

// copyTargetOverlapping appends length bytes read starting at readPos in
// *target to the end of *target. When the read window overlaps the write
// window (readPos is behind the current write position and the copy would
// read bytes it has not written yet as of the start of the command), bytes
// must be propagated forward one at a time so each newly appended byte
// becomes visible to the next read, which is what produces run-length
// repetition. A fully non-overlapping copy is safe to bulk append.
func copyTargetOverlapping(target *[]byte, readPos int64, length int) {
	writePos := int64(len(*target))
	if readPos+int64(length) <= writePos {
		*target = append(*target, (*target)[readPos:readPos+int64(length)]...)
		return
	}
	for i := 0; i < length; i++ {
		*target = append(*target, (*target)[readPos+int64(i)])
	}
}

// readUvarint reads a BPS varint starting at offset off in buf, returning
// the decoded value, the number of bytes consumed, and whether decoding
// succeeded.
func readUvarint(buf []byte, off int) (v uint64, n int, ok bool) {
	if off > len(buf) {
		return 0, 0, false
	}
	v, n, err := DecodeUvarint(buf[off:])
	if err != nil {
		return 0, 0, false
	}
	return v, n, true
}

// readSignedOffset reads a BPS signed-offset varint starting at offset off
// in buf.
func readSignedOffset(buf []byte, off int) (d int64, n int, ok bool) {
	if off > len(buf) {
		return 0, 0, false
	}
	d, n, err := DecodeSignedOffset(buf[off:])
	if err != nil {
		return 0, 0, false
	}
	return d, n, true
}
