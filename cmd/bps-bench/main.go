// Command bps-bench compares the three bps search backends against each
// other, and against kr/binarydist's bsdiff-style algorithm, across a
// handful of synthetic workload sizes. It exists to make backend selection
// (linear below ~1MB, rolling-hash by default, suffix-array for repeated
// searches against a shared source) an observable, not a guess.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/facebookgo/flagenv"
	"github.com/kr/binarydist"
	"github.com/thomasf/lg"

	"github.com/alkasir/bps/pkg/bps"
)

type workload struct {
	name         string
	sourceSize   int
	editFraction float64 // fraction of target bytes rewritten relative to source
}

var workloads = []workload{
	{"small-4k", 4 << 10, 0.01},
	{"medium-256k", 256 << 10, 0.02},
	{"large-4m", 4 << 20, 0.005},
}

func main() {
	var seed = flag.Int64("seed", 1, "PRNG seed for reproducible workloads")
	var skipBsdiff = flag.Bool("skip-bsdiff", false, "skip the kr/binarydist comparison (slow on large inputs)")
	flag.Parse()
	flagenv.Prefix = "BPS_BENCH_"
	flagenv.Parse()
	lg.CopyStandardLogTo("INFO")

	rng := rand.New(rand.NewSource(*seed))

	for _, wl := range workloads {
		source, target := makeWorkload(rng, wl)
		fmt.Printf("== %s (source=%d target=%d) ==\n", wl.name, len(source), len(target))

		for _, backend := range []struct {
			name string
			id   bps.SearchBackend
		}{
			{"linear", bps.LinearBackend},
			{"rollinghash", bps.RollingHashBackend},
			{"suffixarray", bps.SuffixArrayBackend},
		} {
			start := time.Now()
			patch, err := bps.Encode(source, target, "", bps.EncodeOptions{Backend: backend.id})
			elapsed := time.Since(start)
			if err != nil {
				lg.Errorf("%s: encode failed: %v", backend.name, err)
				continue
			}
			decoded, warnings, err := bps.Decode(source, patch)
			if err != nil {
				lg.Errorf("%s: decode failed: %v", backend.name, err)
				continue
			}
			if !bytes.Equal(decoded, target) {
				lg.Errorf("%s: round trip mismatch", backend.name)
				continue
			}
			for _, w := range warnings {
				lg.Warningf("%s: %v", backend.name, w)
			}
			fmt.Printf("  %-12s patch=%-9d encode=%-12s\n", backend.name, len(patch), elapsed)
		}

		if !*skipBsdiff {
			start := time.Now()
			var buf bytes.Buffer
			if err := binarydist.Diff(bytes.NewReader(source), bytes.NewReader(target), &buf); err != nil {
				lg.Errorf("binarydist: diff failed: %v", err)
				continue
			}
			fmt.Printf("  %-12s patch=%-9d encode=%-12s\n", "bsdiff", buf.Len(), time.Since(start))
		}
	}
}

// makeWorkload builds a source of the requested size and a target derived
// from it by rewriting a random editFraction of bytes and appending a small
// amount of new content, so every backend has both source-copy and
// target-copy opportunities to find.
func makeWorkload(rng *rand.Rand, wl workload) (source, target []byte) {
	source = make([]byte, wl.sourceSize)
	rng.Read(source)

	target = make([]byte, len(source))
	copy(target, source)
	edits := int(float64(len(target)) * wl.editFraction)
	for i := 0; i < edits; i++ {
		pos := rng.Intn(len(target))
		target[pos] = byte(rng.Intn(256))
	}
	tail := make([]byte, len(source)/16+1)
	rng.Read(tail)
	target = append(target, tail...)
	return source, target
}
