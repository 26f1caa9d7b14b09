package bps

// rollingHashModulus and rollingHashBase are the Rabin-Karp parameters: a
// Mersenne-prime modulus (2^31-1) and base 257, chosen so multiplication
// stays well inside uint64 without overflow.
const (
	rollingHashModulus uint64 = (1 << 31) - 1
	rollingHashBase    uint64 = 257
)

// rollingHashWindow is the fixed window length this backend indexes the
// corpus at: the constant MinMatchLength, the shortest length the encoder
// would ever adopt a copy for. Verified matches extend past the window via
// the byte-range matcher, so index construction stays a single O(n) pass
// instead of requiring a rebuild every time the encoder's running best
// match grows. This is the same one-fixed-window, verify-and-extend-on-
// collision approach gitdelta's hashChunks (diff.go) takes.
const rollingHashWindow = MinMatchLength

// RollingHashSearcher indexes a corpus by the Rabin-Karp hash of every
// rollingHashWindow-byte window, so a needle's leading window can be looked
// up in expected O(1) instead of scanned for.
type RollingHashSearcher struct {
	corpus []byte
	index  map[uint64][]int32
	pow    uint64 // rollingHashBase^(rollingHashWindow-1) mod rollingHashModulus
}

// NewRollingHashSearcher builds a rolling-hash index over corpus in
// expected O(len(corpus)) time.
func NewRollingHashSearcher(corpus []byte) *RollingHashSearcher {
	s := &RollingHashSearcher{corpus: corpus, index: make(map[uint64][]int32)}
	s.pow = 1
	for i := 0; i < rollingHashWindow-1; i++ {
		s.pow = (s.pow * rollingHashBase) % rollingHashModulus
	}
	if len(corpus) < rollingHashWindow {
		return s
	}
	h := windowHash(corpus[:rollingHashWindow])
	s.index[h] = append(s.index[h], 0)
	for i := 1; i <= len(corpus)-rollingHashWindow; i++ {
		h = rollWindowHash(h, corpus[i-1], corpus[i+rollingHashWindow-1], s.pow)
		s.index[h] = append(s.index[h], int32(i))
	}
	return s
}

func windowHash(w []byte) uint64 {
	var h uint64
	for _, b := range w {
		h = (h*rollingHashBase + uint64(b)) % rollingHashModulus
	}
	return h
}

// rollWindowHash slides a window forward by one byte: drop outByte from the
// front, append inByte at the back.
func rollWindowHash(h uint64, outByte, inByte byte, pow uint64) uint64 {
	m := rollingHashModulus
	h = (h + m - (uint64(outByte)*pow)%m) % m
	h = (h*rollingHashBase + uint64(inByte)) % m
	return h
}

func (s *RollingHashSearcher) Find(needle []byte, maxStart int) (length, start int, found bool) {
	if len(needle) < rollingHashWindow {
		return 0, 0, false
	}
	if maxStart > len(s.corpus) {
		maxStart = len(s.corpus)
	}
	h := windowHash(needle[:rollingHashWindow])
	candidates := s.index[h]
	best := 0
	bestStart := 0
	for _, c := range candidates {
		pos := int(c)
		if pos >= maxStart {
			continue
		}
		// Verify: a hash collision without matching bytes must not be
		// trusted as a match.
		if pos+rollingHashWindow > len(s.corpus) {
			continue
		}
		if !bytesEqualStride(s.corpus[pos:pos+rollingHashWindow], needle[:rollingHashWindow]) {
			continue
		}
		l, _ := LongestCommonPrefix(s.corpus[pos:], needle)
		if l > best {
			best = l
			bestStart = pos
		}
	}
	return best, bestStart, best > 0
}
