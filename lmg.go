// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// Fidelity reports whether a decode captured the container's full
// semantic content.
type Fidelity int

const (
	// FidelityFull means the container round-trips exactly: it was a
	// dialogue file with the minimal 4-byte string section.
	FidelityFull Fidelity = iota

	// FidelityPartial means the container carried string-section
	// content this package does not reconstruct. The decode is usable
	// for inspection, but re-encoding it will not reproduce the
	// original.
	FidelityPartial
)

// CompressionMode controls how the codec treats LZ11 compression.
type CompressionMode int

const (
	// CompressAuto decompresses compressed input on decode and, on
	// encode, leaves compression to the caller's file naming policy.
	CompressAuto CompressionMode = iota

	// CompressNever refuses compressed input with ErrCompressed and
	// never compresses output.
	CompressNever

	// CompressAlways compresses encode output unconditionally.
	CompressAlways
)

// Options configures the container codec. The zero value (and nil) use
// the default command table with CompressAuto.
type Options struct {
	// Table is the opcode table used by the message transcoder.
	// Nil means DefaultCommandTable.
	Table *CommandTable

	// Compression selects the LZ11 policy.
	Compression CompressionMode
}

func (o *Options) table() *CommandTable {
	if o == nil || o.Table == nil {
		return DefaultCommandTable()
	}
	return o.Table
}

func (o *Options) compression() CompressionMode {
	if o == nil {
		return CompressAuto
	}
	return o.Compression
}

// Document is a fully decoded container: the ordered message sequence
// plus the header fields needed to rebuild it.
type Document struct {
	// Mystery is the opaque header word, preserved verbatim so a
	// binary round trip keeps it. Its semantics are unknown; it is
	// zero in every dialogue file observed.
	Mystery [4]byte

	// Messages in pointer-table order.
	Messages []*Message

	// Fidelity of the decode that produced this document. Documents
	// built from text are always FidelityFull.
	Fidelity Fidelity
}

// Decode parses a 1LMG container, decompressing it first when the input
// is an LZ11 stream. It returns ErrFormat for unrecognized input,
// ErrCompressed when compression is disabled but needed, ErrEmpty for a
// container with no messages, and wraps LZ11 errors from a failed
// decompression.
func Decode(data []byte, opts *Options) (*Document, error) {
	table := opts.table()

	if len(data) < 4 || string(data[0:4]) != magic {
		// A compressed container puts the magic at offset 5: type
		// byte, 3-byte size, first flag byte, then four literals.
		if len(data) < 9 || string(data[5:9]) != magic {
			return nil, fmt.Errorf("missing %q magic: %w", magic, ErrFormat)
		}
		if opts.compression() == CompressNever {
			return nil, ErrCompressed
		}
		plain, err := LZ11Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress container: %w", err)
		}
		data = plain
	}

	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	stringStart := h.stringStart()
	tableStart := h.tableStart()
	if tableStart < headerSize || tableStart+4 > len(data) {
		return nil, fmt.Errorf("pointer table at 0x%X is outside the %d byte file: %w", tableStart, len(data), ErrFormat)
	}

	count := int(binary.LittleEndian.Uint32(data[tableStart:]))
	if count == 0 {
		return nil, ErrEmpty
	}
	labelStart := tableStart + 4 + count*8
	if count > (len(data)-tableStart-4)/8 {
		return nil, fmt.Errorf("pointer table with %d entries is truncated: %w", count, ErrFormat)
	}

	msgs := make([]*Message, count)
	labelOffs := make([]int, count)
	for i := 0; i < count; i++ {
		entry := tableStart + 4 + i*8
		labelOffs[i] = int(binary.LittleEndian.Uint32(data[entry:]))
		msgs[i] = &Message{Pointer: binary.LittleEndian.Uint32(data[entry+4:])}
	}

	if err := deriveLengths(msgs, stringStart); err != nil {
		return nil, err
	}
	for i, m := range msgs {
		if int(m.Pointer)+int(m.Length) > len(data) {
			return nil, fmt.Errorf("message %d spans past the end of the file: %w", i, ErrFormat)
		}
	}

	for i, m := range msgs {
		label, err := readLabel(data, labelStart, labelOffs[i])
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		m.Label = label

		text, err := table.Decode(data[m.Pointer : m.Pointer+m.Length])
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", m.Label, err)
		}
		m.Text = text
	}

	doc := &Document{Messages: msgs}
	copy(doc.Mystery[:], h.mystery[:])

	if h.stringLen == stringPlaceholder {
		// Dialogue file. The last message sometimes carries a zero
		// unit after its stop code purely to 4-byte align the pointer
		// table; it renders as a trailing "0" and is not content.
		last := msgs[count-1]
		if pad := table.StopToken() + "0"; strings.HasSuffix(last.Text, pad) {
			last.Text = last.Text[:len(last.Text)-1]
		}
	} else {
		doc.Fidelity = FidelityPartial
	}

	return doc, nil
}

// deriveLengths computes payload lengths from the deltas between
// successive data offsets; the last message runs to the string section.
// The pointer table is expected in ascending offset order, but lengths
// are derived from a sorted view so an out-of-order producer still
// decodes; message order itself is untouched.
func deriveLengths(msgs []*Message, stringStart int) error {
	order := make([]int, len(msgs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return msgs[order[a]].Pointer < msgs[order[b]].Pointer
	})

	for k, idx := range order {
		end := uint32(stringStart)
		if k+1 < len(order) {
			end = msgs[order[k+1]].Pointer
		}
		m := msgs[idx]
		if m.Pointer < headerSize || end < m.Pointer {
			return fmt.Errorf("message %d spans 0x%X-0x%X outside the data section: %w",
				idx, m.Pointer, end, ErrFormat)
		}
		m.Length = end - m.Pointer
	}
	return nil
}

// readLabel reads the null-terminated label at start+off.
func readLabel(data []byte, start, off int) (string, error) {
	pos := start + off
	if off < 0 || pos < start || pos >= len(data) {
		return "", fmt.Errorf("label offset 0x%X is outside the file: %w", off, ErrFormat)
	}
	end := bytes.IndexByte(data[pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("label at 0x%X is not terminated: %w", pos, ErrFormat)
	}
	return string(data[pos : pos+end]), nil
}
