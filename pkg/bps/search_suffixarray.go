package bps

import (
	"bytes"
	"sort"
)

// suffixArrayNeighborBand bounds how many *admissible* (pos < maxStart)
// suffix-array neighbors on each side of the binary-search insertion point
// are inspected per query. The sorted order guarantees the suffixes with
// the longest common prefix with the needle sit closest to that insertion
// point, so a small constant band captures the true best match in practice.
// Neighbors excluded by maxStart don't count against this budget (they cost
// a comparison but earn no result), which keeps the search from
// under-reporting the true best match whenever maxStart happens to filter
// out several of the closest suffixes in a row.
const suffixArrayNeighborBand = 64

// suffixArrayMaxScan caps the total number of suffixes inspected per query,
// admissible or not, so a corpus dominated by one repeated byte (where many
// consecutive sorted suffixes are excluded by maxStart) can't turn a query
// into an O(n) scan.
const suffixArrayMaxScan = suffixArrayNeighborBand * 32

// SuffixArraySearcher precomputes a sorted array of every suffix-start
// index of a corpus, for repeated substring queries against it. Suited to
// many searches against the same corpus: a shared source across many
// patches, or the growing-but-fully-known target within one encode call.
//
// Construction sorts corpus positions by their suffix's byte content, a
// naive approach quadratic in the number of character comparisons rather
// than the SA-IS linear-time construction a production diff tool would
// eventually grow into.
type SuffixArraySearcher struct {
	corpus []byte
	sorted []int32 // suffix start positions, ascending by suffix content
}

// NewSuffixArraySearcher builds a suffix array over corpus.
func NewSuffixArraySearcher(corpus []byte) *SuffixArraySearcher {
	n := len(corpus)
	sorted := make([]int32, n)
	for i := range sorted {
		sorted[i] = int32(i)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(corpus[sorted[i]:], corpus[sorted[j]:]) < 0
	})
	return &SuffixArraySearcher{corpus: corpus, sorted: sorted}
}

func (s *SuffixArraySearcher) Find(needle []byte, maxStart int) (length, start int, found bool) {
	if maxStart > len(s.corpus) {
		maxStart = len(s.corpus)
	}
	n := len(s.sorted)
	if n == 0 || len(needle) == 0 {
		return 0, 0, false
	}

	// Binary-search the insertion point of needle among the sorted
	// suffixes: the first suffix that is not lexicographically smaller
	// than needle.
	insertion := sort.Search(n, func(i int) bool {
		return compareSuffixToNeedle(s.corpus, int(s.sorted[i]), needle) >= 0
	})

	best := 0
	bestStart := 0
	consider := func(pos int) {
		l, _ := LongestCommonPrefix(s.corpus[pos:], needle)
		if l > best {
			best = l
			bestStart = pos
		}
	}

	// Walk outward from the insertion point in both directions, spending
	// the neighbor budget only on admissible candidates so a run of
	// maxStart-excluded suffixes doesn't starve the search early.
	scanned := 0
	admissible := 0
	for i := insertion - 1; i >= 0 && admissible < suffixArrayNeighborBand && scanned < suffixArrayMaxScan; i-- {
		scanned++
		pos := int(s.sorted[i])
		if pos >= maxStart {
			continue
		}
		admissible++
		consider(pos)
	}
	scanned = 0
	admissible = 0
	for i := insertion; i < n && admissible < suffixArrayNeighborBand && scanned < suffixArrayMaxScan; i++ {
		scanned++
		pos := int(s.sorted[i])
		if pos >= maxStart {
			continue
		}
		admissible++
		consider(pos)
	}
	return best, bestStart, best > 0
}

// compareSuffixToNeedle compares the suffix of corpus starting at pos
// against needle, lexicographically, treating a shorter string that is a
// prefix of the longer one as smaller (the same rule bytes.Compare uses).
func compareSuffixToNeedle(corpus []byte, pos int, needle []byte) int {
	return bytes.Compare(corpus[pos:], needle)
}
