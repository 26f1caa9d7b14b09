// Package bpsdiag bundles a runtime snapshot (goroutine/heap profiles plus
// the in-memory log tail) into a report directory, for filing alongside a
// bug report when bps-server or bps-cli misbehaves in the field.
package bpsdiag

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/thomasf/lg"
)

// Header identifies a single report: when and where it was collected.
type Header struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	OS        string    `json:"os"`
	Arch      string    `json:"arch"`
	Cmd       string    `json:"cmd"`
	GoVersion string    `json:"go_ver"`
}

// Report is a captured runtime snapshot ready to be written to disk.
type Report struct {
	Header       Header   `json:"header"`
	Log          []string `json:"log"`
	Heap         []string `json:"heap"`
	GoRoutines   []string `json:"goroutines"`
	Block        []string `json:"block"`
	ThreadCreate []string `json:"thread_create"`
}

// randomID returns a hex-encoded, cryptographically random report ID short
// enough to appear in a directory name.
func randomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Capture takes a runtime snapshot for the given version string.
func Capture(version string) (*Report, error) {
	id, err := randomID(12)
	if err != nil {
		return nil, fmt.Errorf("bpsdiag: generating report id: %w", err)
	}

	r := &Report{
		Header: Header{
			Cmd:       filepath.Base(os.Args[0]),
			ID:        id,
			Version:   version,
			CreatedAt: time.Now(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			GoVersion: runtime.Version(),
		},
	}

	getProfile := func(name string) []string {
		buf := bytes.NewBuffer(nil)
		if err := pprof.Lookup(name).WriteTo(buf, 2); err != nil {
			lg.Errorln(err)
			return nil
		}
		return strings.Split(buf.String(), "\n")
	}

	r.Heap = getProfile("heap")
	r.GoRoutines = getProfile("goroutine")
	r.ThreadCreate = getProfile("threadcreate")
	r.Block = getProfile("block")
	// Memlog is collected last so it captures anything logged while
	// gathering the profiles above.
	r.Log = lg.Memlog()

	return r, nil
}

// dirName builds the report's directory name from its header, grouping
// reports by collection time so a directory of them sorts chronologically.
func (r *Report) dirName() string {
	return filepath.Join("bps-diag-reports",
		fmt.Sprintf("%s-%s-%s-%s-%s",
			r.Header.CreatedAt.Format("2006-01-02--15-04-05"),
			r.Header.OS,
			r.Header.Arch,
			r.Header.ID,
			r.Header.Version,
		),
	)
}

// WriteToDisk writes the report under baseDir (or the current directory, if
// baseDir is empty) and returns the directory it wrote to.
func (r *Report) WriteToDisk(baseDir string) (string, error) {
	dir := filepath.Join(baseDir, r.dirName())
	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", fmt.Errorf("bpsdiag: %w", err)
	}

	writeTextFile := func(data []string, basename string) error {
		filename := filepath.Join(dir, basename+".txt")
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0664)
		if err != nil {
			return err
		}
		defer f.Close()
		for _, v := range data {
			if _, err := f.WriteString(v + "\n"); err != nil {
				return err
			}
		}
		return nil
	}

	writeJSONFile := func(data interface{}, basename string) error {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, basename+".json"), b, 0664)
	}

	writes := []error{
		writeJSONFile(r.Header, "header"),
		writeTextFile(r.Log, "log"),
		writeTextFile(r.Heap, "heap"),
		writeTextFile(r.GoRoutines, "goroutines"),
		writeTextFile(r.Block, "block"),
		writeTextFile(r.ThreadCreate, "threadcreate"),
	}
	for _, err := range writes {
		if err != nil {
			return dir, fmt.Errorf("bpsdiag: writing report: %w", err)
		}
	}
	lg.Infof("wrote diagnostic report to %s", dir)
	return dir, nil
}
