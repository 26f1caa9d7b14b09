// Package bpsdump decodes a BPS patch's header and command stream into
// plain Go values for debugging, the same role spew.Sdump plays whenever a
// program needs a human-legible dump of a nested value without hand-writing
// a formatter for it.
package bpsdump

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/alkasir/bps/pkg/bps"
)

// Command is one decoded patch command, kept separate from bps.Action so
// this package can attach human-readable fields (an absolute cursor
// position, decoded delta) without changing the core's wire types.
type Command struct {
	Index     int
	Action    bps.Action
	Length    int
	OutputPos int
	Delta     int64 `json:",omitempty"`
	HasDelta  bool
}

// Patch is the fully-parsed structure a patch inspector renders.
type Patch struct {
	SourceSize   uint64
	TargetSize   uint64
	Metadata     string
	Commands     []Command
	SourceCRC    uint32
	TargetCRC    uint32
	PatchCRC     uint32
	SelfCRCValid bool
}

// Parse walks a patch's header and command stream without executing any
// copy, purely for inspection. It shares no code with bps.Decode: that
// function's job is to produce target bytes as fast as possible, while
// this one's job is to describe the command stream faithfully even when
// doing so is not the cheapest way to reconstruct target.
func Parse(patch []byte) (*Patch, error) {
	if len(patch) < bps.MinPatchSize {
		return nil, errors.Wrap(bps.ErrBadHeader, "bpsdump")
	}
	if patch[0] != bps.Magic[0] || patch[1] != bps.Magic[1] || patch[2] != bps.Magic[2] || patch[3] != bps.Magic[3] {
		return nil, errors.Wrap(bps.ErrBadHeader, "bpsdump")
	}

	p := len(bps.Magic)
	sourceSize, n, err := bps.DecodeUvarint(patch[p:])
	if err != nil {
		return nil, errors.Wrap(err, "bpsdump: source size")
	}
	p += n
	targetSize, n, err := bps.DecodeUvarint(patch[p:])
	if err != nil {
		return nil, errors.Wrap(err, "bpsdump: target size")
	}
	p += n
	metadataSize, n, err := bps.DecodeUvarint(patch[p:])
	if err != nil {
		return nil, errors.Wrap(err, "bpsdump: metadata size")
	}
	p += n
	if p+int(metadataSize) > len(patch)-bps.TrailerSize {
		return nil, errors.Wrap(bps.ErrTruncated, "bpsdump: metadata")
	}
	metadata := string(patch[p : p+int(metadataSize)])
	p += int(metadataSize)

	commandsEnd := len(patch) - bps.TrailerSize
	var commands []Command
	outputPos := 0
	for idx := 0; p < commandsEnd; idx++ {
		c, n, err := bps.DecodeUvarint(patch[p:])
		if err != nil {
			return nil, errors.Wrapf(err, "bpsdump: command %d", idx)
		}
		p += n

		action := bps.Action(c & 3)
		length := int(c>>2) + 1

		cmd := Command{Index: idx, Action: action, Length: length, OutputPos: outputPos}
		switch action {
		case bps.TargetRead:
			if p+length > commandsEnd {
				return nil, errors.Wrapf(bps.ErrTruncated, "bpsdump: command %d literal data", idx)
			}
			p += length
		case bps.SourceCopy, bps.TargetCopy:
			d, n, err := bps.DecodeSignedOffset(patch[p:])
			if err != nil {
				return nil, errors.Wrapf(err, "bpsdump: command %d delta", idx)
			}
			p += n
			cmd.Delta = d
			cmd.HasDelta = true
		}
		commands = append(commands, cmd)
		outputPos += length
	}

	trailer := patch[commandsEnd:]
	result := &Patch{
		SourceSize: sourceSize,
		TargetSize: targetSize,
		Metadata:   metadata,
		Commands:   commands,
		SourceCRC:  leUint32(trailer[0:4]),
		TargetCRC:  leUint32(trailer[4:8]),
		PatchCRC:   leUint32(trailer[8:12]),
	}
	result.SelfCRCValid = bps.CRC32(patch) == bps.SelfCRCConstant
	return result, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Sdump renders a parsed patch as a multi-line human-readable report: a
// header summary via spew.Sdump followed by one line per command.
func Sdump(p *Patch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "header: %s", spew.Sdump(struct {
		SourceSize, TargetSize uint64
		Metadata               string
		SourceCRC, TargetCRC   uint32
		SelfCRCValid           bool
	}{p.SourceSize, p.TargetSize, p.Metadata, p.SourceCRC, p.TargetCRC, p.SelfCRCValid}))
	for _, c := range p.Commands {
		if c.HasDelta {
			fmt.Fprintf(&b, "  [%4d] @%-8d %-11s len=%-6d delta=%d\n",
				c.Index, c.OutputPos, c.Action, c.Length, c.Delta)
		} else {
			fmt.Fprintf(&b, "  [%4d] @%-8d %-11s len=%-6d\n",
				c.Index, c.OutputPos, c.Action, c.Length)
		}
	}
	return b.String()
}
