package bps

// SearchBackend selects which Searcher implementation the encoder builds
// its indices with.
type SearchBackend int

const (
	// RollingHashBackend indexes fixed-window Rabin-Karp hashes; the
	// default choice for medium-sized inputs, and the SearchBackend zero
	// value so a caller passing EncodeOptions{} gets it automatically.
	RollingHashBackend SearchBackend = iota
	// LinearBackend is the exhaustive reference backend; best for small
	// inputs (roughly up to 1 MB).
	LinearBackend
	// SuffixArrayBackend precomputes a full suffix array; best when many
	// patches will search against the same source.
	SuffixArrayBackend
)

// EncodeOptions controls non-default encoder behavior. The zero value
// selects the rolling-hash backend, a reasonable default across most
// workload sizes.
type EncodeOptions struct {
	Backend SearchBackend
}

// Encode produces a BPS v1 patch that decodes source into exactly target.
// metadata is stored opaquely in the patch header.
func Encode(source, target []byte, metadata string, opts EncodeOptions) ([]byte, error) {
	if len(target) == 0 {
		return nil, ErrEmptyTarget
	}
	if len(source) > MaxRangeLength || len(target) > MaxRangeLength {
		return nil, ErrSizeOverflow
	}

	patch := make([]byte, 0, len(target)+len(target)/8+64)
	patch = append(patch, Magic[:]...)
	patch = AppendUvarint(patch, uint64(len(source)))
	patch = AppendUvarint(patch, uint64(len(target)))
	patch = AppendUvarint(patch, uint64(len(metadata)))
	patch = append(patch, metadata...)

	sourceSearcher := newSearcher(opts.Backend, source)
	targetSearcher := newSearcher(opts.Backend, target)

	e := &encoderState{
		source:         source,
		target:         target,
		sourceSearcher: sourceSearcher,
		targetSearcher: targetSearcher,
	}

	for e.outputPos < len(target) {
		action, length, matchStart := e.findNextAction()
		if action == TargetRead {
			e.pendingRun++
			e.outputPos++
			continue
		}
		e.flushPendingLiteral(&patch)
		patch = e.emitCommand(patch, action, length, matchStart)
		e.outputPos += length
	}
	e.flushPendingLiteral(&patch)

	patch = AppendCRC32LE(patch, source)
	patch = AppendCRC32LE(patch, target)
	patch = AppendCRC32LE(patch, patch)

	return patch, nil
}

// newSearcher constructs the requested backend, freshly, with no state
// shared across calls or across the two indices one Encode call builds.
// Every call to Encode allocates its own searchers and its own
// encoderState, and neither outlives the call, so there is no persistent
// mutable state carried between encode calls to accidentally contaminate a
// later one.
func newSearcher(backend SearchBackend, corpus []byte) Searcher {
	switch backend {
	case LinearBackend:
		return NewLinearSearcher(corpus)
	case SuffixArrayBackend:
		return NewSuffixArraySearcher(corpus)
	default:
		return NewRollingHashSearcher(corpus)
	}
}

// encoderState holds the single-pass, left-to-right cursor state the
// encoder's match engine advances through target. It exists only for the
// duration of one Encode call.
type encoderState struct {
	source, target                []byte
	sourceSearcher, targetSearcher Searcher

	outputPos int

	// pendingRun accumulates a maximal run of positions for which no copy
	// action beat MinMatchLength, so they can be flushed as a single
	// TargetRead command.
	pendingRun int

	sourceRelOffset, targetRelOffset int64
}

// findNextAction evaluates, in order, the SourceRead, SourceCopy, and
// TargetCopy candidates at the current output position and returns
// whichever wins. Ties are broken in favor of the earlier-evaluated action,
// since a SourceRead match costs no offset bytes and a SourceCopy costs
// fewer bytes to reach than an equal-length TargetCopy usually would once
// cursor deltas are considered. This ordering is fixed for reproducible
// output, not because it is provably optimal.
func (e *encoderState) findNextAction() (action Action, length int, start int) {
	best := MinMatchLength - 1
	bestAction := TargetRead
	bestStart := 0

	if e.outputPos < len(e.source) {
		l, exhausted := LongestCommonPrefix(e.source[e.outputPos:], e.target[e.outputPos:])
		if l > best {
			best = l
			bestAction = SourceRead
			bestStart = e.outputPos
			if exhausted {
				return bestAction, best, bestStart
			}
		}
	}

	if l, start, found := e.sourceSearcher.Find(e.target[e.outputPos:], len(e.source)); found && l > best {
		best = l
		bestAction = SourceCopy
		bestStart = start
	}

	if l, start, found := e.targetSearcher.Find(e.target[e.outputPos:], e.outputPos); found && l > best {
		best = l
		bestAction = TargetCopy
		bestStart = start
	}

	if bestAction == TargetRead {
		return TargetRead, 1, 0
	}
	return bestAction, best, bestStart
}

// flushPendingLiteral emits the accumulated literal run, if any, as a
// single TargetRead command followed by its bytes.
func (e *encoderState) flushPendingLiteral(patch *[]byte) {
	if e.pendingRun == 0 {
		return
	}
	runStart := e.outputPos - e.pendingRun
	*patch = AppendUvarint(*patch, encodeCommand(TargetRead, e.pendingRun))
	*patch = append(*patch, e.target[runStart:e.outputPos]...)
	e.pendingRun = 0
}

// emitCommand appends a non-literal command (SourceRead, SourceCopy, or
// TargetCopy) to patch and updates the relevant cursor.
func (e *encoderState) emitCommand(patch []byte, action Action, length int, start int) []byte {
	patch = AppendUvarint(patch, encodeCommand(action, length))
	switch action {
	case SourceCopy:
		delta := int64(start) - e.sourceRelOffset
		patch = AppendSignedOffset(patch, delta)
		e.sourceRelOffset = int64(start) + int64(length)
	case TargetCopy:
		delta := int64(start) - e.targetRelOffset
		patch = AppendSignedOffset(patch, delta)
		e.targetRelOffset = int64(start) + int64(length)
	}
	return patch
}
