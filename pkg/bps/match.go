package bps

import (
	"encoding/binary"
	"math/bits"

	"github.com/klauspost/cpuid/v2"
)

// wideStride is the number of bytes compared per iteration on the fast
// path. 8 bytes (one uint64 load) is the widest stride that is safe to
// decode with math/bits on every architecture this package targets without
// resorting to assembly; on CPUs that advertise AVX2 the stride is doubled
// to two words per iteration, which approximates a 16-byte vector compare
// without needing a .s file per architecture.
const wideStride = 8

// hasWideCompare records, once at package init, whether the CPU advertises
// a wide SIMD instruction set. When it does, LongestCommonPrefix takes the
// machine-word path (with a doubled stride on AVX2); otherwise it compares
// byte by byte. Either way the result must match the scalar reference, as
// required by the SIMD/scalar agreement property (spec's testable property
// #5), without depending on build tags.
var hasWideCompare = cpuid.CPU.Supports(cpuid.AVX2) || cpuid.CPU.Supports(cpuid.SSE2)

// LongestCommonPrefix returns the length of the longest common prefix of a
// and b, and whether that length equals len(b) (i.e. b is exhausted,
// meaning the match could potentially be extended further if more of b
// were available).
//
// The wide path advances in machine-word strides and falls back to a
// scalar byte-by-byte tail on the first mismatching stride, to pin down
// the exact mismatch offset. Scalar and wide paths are required to agree
// bit-for-bit on every input; LongestCommonPrefixScalar exists precisely
// so tests can assert that agreement.
func LongestCommonPrefix(a, b []byte) (length int, exhausted bool) {
	if hasWideCompare {
		length = longestCommonPrefixWide(a, b)
	} else {
		length = longestCommonPrefixScalar(a, b)
	}
	return length, length == len(b)
}

// LongestCommonPrefixScalar is the byte-by-byte reference implementation.
// It is exported so property tests can compare it against the dispatching
// LongestCommonPrefix on arbitrary inputs.
func LongestCommonPrefixScalar(a, b []byte) (length int, exhausted bool) {
	length = longestCommonPrefixScalar(a, b)
	return length, length == len(b)
}

func longestCommonPrefixScalar(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func longestCommonPrefixWide(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	stride := wideStride
	if cpuid.CPU.Supports(cpuid.AVX2) {
		stride = wideStride * 2
	}

	i := 0
	for i+stride <= n {
		if !bytesEqualStride(a[i:i+stride], b[i:i+stride]) {
			break
		}
		i += stride
	}
	// One machine word at a time from here, to localize the mismatch
	// before dropping to the scalar tail.
	for i+wideStride <= n {
		wa := binary.LittleEndian.Uint64(a[i : i+wideStride])
		wb := binary.LittleEndian.Uint64(b[i : i+wideStride])
		if wa == wb {
			i += wideStride
			continue
		}
		// Locate the first differing byte within the mismatching word:
		// the number of matching low bytes equals the number of
		// trailing zero bytes in the XOR, since both words are
		// little-endian loads.
		return i + bits.TrailingZeros64(wa^wb)/8
	}
	return i + longestCommonPrefixScalar(a[i:n], b[i:n])
}

// bytesEqualStride compares two equal-length slices word-at-a-time. It
// exists as its own function so the AVX2 "doubled stride" path and the
// plain 8-byte path share one comparison primitive.
func bytesEqualStride(a, b []byte) bool {
	for len(a) >= wideStride {
		if binary.LittleEndian.Uint64(a) != binary.LittleEndian.Uint64(b) {
			return false
		}
		a = a[wideStride:]
		b = b[wideStride:]
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
