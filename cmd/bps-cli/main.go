// Command bps-cli encodes and decodes BPS patches, and dumps a patch's
// command stream for inspection.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/facebookgo/flagenv"
	"github.com/thomasf/lg"

	"github.com/alkasir/bps/pkg/bps"
	"github.com/alkasir/bps/pkg/bps/bpsdiag"
	"github.com/alkasir/bps/pkg/bps/bpsdump"
)

// version is overridable at build time via -ldflags "-X main.version=...".
var version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bps-cli <command> [flags]

commands:
  encode -source FILE -target FILE -out FILE [-metadata STR] [-backend NAME]
  decode -source FILE -patch FILE -out FILE
  inspect -patch FILE
  diag [-out DIR]

backends: linear, rollinghash (default), suffixarray
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	var (
		sourcePath = flag.String("source", "", "source file path")
		targetPath = flag.String("target", "", "target file path")
		patchPath  = flag.String("patch", "", "patch file path")
		outPath    = flag.String("out", "", "output file path")
		metadata   = flag.String("metadata", "", "opaque metadata to embed in the patch")
		backend    = flag.String("backend", "rollinghash", "search backend: linear, rollinghash, suffixarray")
	)
	flag.Parse()
	flagenv.Prefix = "BPS_CLI_"
	flagenv.Parse()
	lg.CopyStandardLogTo("INFO")

	switch cmd {
	case "encode":
		runEncode(*sourcePath, *targetPath, *outPath, *metadata, *backend)
	case "decode":
		runDecode(*sourcePath, *patchPath, *outPath)
	case "inspect":
		runInspect(*patchPath)
	case "diag":
		runDiag(*outPath)
	default:
		usage()
	}
}

func mustReadFile(path, flagName string) []byte {
	if path == "" {
		lg.Fatalf("missing required flag -%s", flagName)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		lg.Fatal(err)
	}
	return data
}

func backendFromName(name string) bps.SearchBackend {
	switch name {
	case "linear":
		return bps.LinearBackend
	case "suffixarray":
		return bps.SuffixArrayBackend
	case "rollinghash", "":
		return bps.RollingHashBackend
	default:
		lg.Fatalf("unknown backend %q", name)
		return bps.RollingHashBackend
	}
}

func runEncode(sourcePath, targetPath, outPath, metadata, backend string) {
	source := mustReadFile(sourcePath, "source")
	target := mustReadFile(targetPath, "target")
	if outPath == "" {
		lg.Fatal("missing required flag -out")
	}
	patch, err := bps.Encode(source, target, metadata, bps.EncodeOptions{
		Backend: backendFromName(backend),
	})
	if err != nil {
		lg.Fatal(err)
	}
	if err := ioutil.WriteFile(outPath, patch, 0644); err != nil {
		lg.Fatal(err)
	}
	lg.Infof("wrote %d byte patch (source %d, target %d)", len(patch), len(source), len(target))
}

func runDecode(sourcePath, patchPath, outPath string) {
	source := mustReadFile(sourcePath, "source")
	patch := mustReadFile(patchPath, "patch")
	if outPath == "" {
		lg.Fatal("missing required flag -out")
	}
	target, warnings, err := bps.Decode(source, patch)
	if err != nil {
		lg.Fatal(err)
	}
	for _, w := range warnings {
		lg.Warning(w)
	}
	if err := ioutil.WriteFile(outPath, target, 0644); err != nil {
		lg.Fatal(err)
	}
	lg.Infof("wrote %d byte target", len(target))
}

func runInspect(patchPath string) {
	patch := mustReadFile(patchPath, "patch")
	parsed, err := bpsdump.Parse(patch)
	if err != nil {
		lg.Fatal(err)
	}
	fmt.Print(bpsdump.Sdump(parsed))
}

func runDiag(outDir string) {
	report, err := bpsdiag.Capture(version)
	if err != nil {
		lg.Fatal(err)
	}
	dir, err := report.WriteToDisk(outDir)
	if err != nil {
		lg.Fatal(err)
	}
	fmt.Println(dir)
}
