// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"encoding/binary"
	"fmt"
)

// Encode builds the binary container for the document. The first
// message that fails to transcode aborts the build, so either a
// complete consistent buffer is returned or none at all. With
// CompressAlways the result is the LZ11 stream of the container.
func (d *Document) Encode(opts *Options) ([]byte, error) {
	if len(d.Messages) == 0 {
		return nil, ErrEmpty
	}
	table := opts.table()

	var data, labels []byte
	// The label section opens with a placeholder byte pair, so the
	// first label offset is 2.
	labels = append(labels, '*', 0)

	pointers := make([]byte, 0, 4+len(d.Messages)*8)
	pointers = binary.LittleEndian.AppendUint32(pointers, uint32(len(d.Messages)))

	for _, m := range d.Messages {
		pointers = binary.LittleEndian.AppendUint32(pointers, uint32(len(labels)))
		pointers = binary.LittleEndian.AppendUint32(pointers, uint32(len(data)+headerSize))

		payload, err := table.Encode(m.Text)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", m.Label, err)
		}
		data = append(data, payload...)
		labels = append(labels, m.Label...)
		labels = append(labels, 0)
	}

	data = append(data, padTo4(len(data))...)
	labels = append(labels, padTo4(len(labels))...)

	// Dialogue files carry a fixed placeholder string section.
	stringSection := []byte{'*', 0, 0, 0}

	h := header{
		mystery:   d.Mystery,
		dataLen:   uint32(len(data)),
		stringLen: uint32(len(stringSection)),
		tableLen:  uint32(len(pointers) + len(labels)),
	}

	out := make([]byte, 0, headerSize+len(data)+len(stringSection)+len(pointers)+len(labels))
	out = h.appendTo(out)
	out = append(out, data...)
	out = append(out, stringSection...)
	out = append(out, pointers...)
	out = append(out, labels...)

	if opts.compression() == CompressAlways {
		return LZ11Compress(out), nil
	}
	return out, nil
}
