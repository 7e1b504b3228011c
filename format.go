// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"encoding/binary"
	"fmt"
)

// 1LMG format constants
const (
	// Magic signature "1LMG" at offset 0 of a plain container.
	magic = "1LMG"

	// Fixed header size: magic, mystery word, three section lengths,
	// 0x20 reserved bytes.
	headerSize = 0x34

	// Size of the placeholder string section written for dialogue
	// files. Script files carry larger string sections, which this
	// package does not reconstruct.
	stringPlaceholder = 4

	// Data, string, and label sections are zero-padded to this
	// alignment.
	sectionAlign = 4
)

// header is the fixed 0x34-byte container header. The mystery word has
// unknown semantics (observed non-zero only in script files) and is
// preserved verbatim across a decode/encode round trip.
type header struct {
	mystery   [4]byte
	dataLen   uint32
	stringLen uint32
	tableLen  uint32 // pointer table + label section, combined
}

// parseHeader validates the magic and reads the header fields.
func parseHeader(data []byte) (*header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%d byte file is shorter than the %d byte header: %w", len(data), headerSize, ErrFormat)
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("missing %q magic: %w", magic, ErrFormat)
	}

	h := &header{
		dataLen:   binary.LittleEndian.Uint32(data[8:12]),
		stringLen: binary.LittleEndian.Uint32(data[12:16]),
		tableLen:  binary.LittleEndian.Uint32(data[16:20]),
	}
	copy(h.mystery[:], data[4:8])
	return h, nil
}

// appendTo appends the encoded header to buf.
func (h *header) appendTo(buf []byte) []byte {
	buf = append(buf, magic...)
	buf = append(buf, h.mystery[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, h.dataLen)
	buf = binary.LittleEndian.AppendUint32(buf, h.stringLen)
	buf = binary.LittleEndian.AppendUint32(buf, h.tableLen)
	buf = append(buf, make([]byte, 0x20)...)
	return buf
}

// stringStart returns the file offset of the string section.
func (h *header) stringStart() int {
	return headerSize + int(h.dataLen)
}

// tableStart returns the file offset of the pointer table.
func (h *header) tableStart() int {
	return h.stringStart() + int(h.stringLen)
}

// padTo4 returns the zero bytes needed to align n to a 4-byte boundary.
func padTo4(n int) []byte {
	if rem := n % sectionAlign; rem != 0 {
		return make([]byte, sectionAlign-rem)
	}
	return nil
}
