// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// LZ11 stream constants
const (
	lz11Type = 0x11 // stream type byte

	lz11MinMatch    = 3
	lz11MaxMatch    = 0x111 + 0xFFF
	lz11MaxDistance = 0x1000

	// Payloads at or above this size use the 4-byte extended size
	// field (the 3-byte field is written as zero).
	lz11ExtendedSize = 0xFFFFFF
)

// LZ11Decompress decompresses an LZ11 stream as the game engine's
// decompressor would. A reference reaching before the start of the
// produced output fails with ErrBadReference; any truncation or size
// inconsistency fails with ErrMalformedStream. Output allocation is
// bounded by the declared uncompressed size.
func LZ11Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%d byte stream is shorter than the header: %w", len(data), ErrMalformedStream)
	}
	if data[0] != lz11Type {
		return nil, fmt.Errorf("stream type 0x%02X is not 0x%02X: %w", data[0], lz11Type, ErrMalformedStream)
	}

	size := int(data[1]) | int(data[2])<<8 | int(data[3])<<16
	pos := 4
	if size == 0 {
		if len(data) < 8 {
			return nil, fmt.Errorf("truncated extended size field: %w", ErrMalformedStream)
		}
		size = int(binary.LittleEndian.Uint32(data[4:8]))
		pos = 8
	}

	out := make([]byte, 0, size)
	for len(out) < size {
		if pos >= len(data) {
			return nil, fmt.Errorf("stream ended %d bytes short: %w", size-len(out), ErrMalformedStream)
		}
		flags := data[pos]
		pos++

		for bit := 7; bit >= 0 && len(out) < size; bit-- {
			if flags&(1<<bit) == 0 {
				// Literal byte.
				if pos >= len(data) {
					return nil, fmt.Errorf("stream ended inside a literal: %w", ErrMalformedStream)
				}
				out = append(out, data[pos])
				pos++
				continue
			}

			// Back-reference; width selected by the high nibble.
			if pos >= len(data) {
				return nil, fmt.Errorf("stream ended inside a reference: %w", ErrMalformedStream)
			}
			var length, distance int
			switch b0 := data[pos]; b0 >> 4 {
			case 0:
				if pos+3 > len(data) {
					return nil, fmt.Errorf("truncated 3 byte reference: %w", ErrMalformedStream)
				}
				length = (int(b0&0xF)<<4 | int(data[pos+1])>>4) + 0x11
				distance = (int(data[pos+1]&0xF)<<8 | int(data[pos+2])) + 1
				pos += 3
			case 1:
				if pos+4 > len(data) {
					return nil, fmt.Errorf("truncated 4 byte reference: %w", ErrMalformedStream)
				}
				length = (int(b0&0xF)<<12 | int(data[pos+1])<<4 | int(data[pos+2])>>4) + 0x111
				distance = (int(data[pos+2]&0xF)<<8 | int(data[pos+3])) + 1
				pos += 4
			default:
				if pos+2 > len(data) {
					return nil, fmt.Errorf("truncated 2 byte reference: %w", ErrMalformedStream)
				}
				length = int(b0>>4) + 1
				distance = (int(b0&0xF)<<8 | int(data[pos+1])) + 1
				pos += 2
			}

			if distance > len(out) {
				return nil, fmt.Errorf("reference reaches %d bytes back with only %d produced: %w",
					distance, len(out), ErrBadReference)
			}
			if len(out)+length > size {
				return nil, fmt.Errorf("reference overruns the declared size %d: %w", size, ErrMalformedStream)
			}

			// Byte by byte so self-overlapping references repeat
			// their own output, as the engine's copy loop does.
			src := len(out) - distance
			for j := 0; j < length; j++ {
				out = append(out, out[src+j])
			}
		}
	}

	return out, nil
}

// LZ11Compress compresses data into a stream LZ11Decompress (and the
// game engine) reproduces exactly. Match search is greedy over a
// 4096-byte window with ties broken toward the smallest distance, so
// output is deterministic; each match is written in the narrowest
// reference encoding that covers it.
func LZ11Compress(data []byte) []byte {
	// A zero 3-byte size field means "extended size follows", so the
	// empty payload must take the extended form too.
	out := make([]byte, 0, 4+len(data)+len(data)/8+1)
	if len(data) >= lz11ExtendedSize || len(data) == 0 {
		out = append(out, lz11Type, 0, 0, 0)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	} else {
		out = append(out, lz11Type, byte(len(data)), byte(len(data)>>8), byte(len(data)>>16))
	}

	mf := newMatchFinder(len(data))
	var tokens [4 * 8]byte

	pos := 0
	for pos < len(data) {
		var flags byte
		n := 0

		for bit := 7; bit >= 0 && pos < len(data); bit-- {
			length, distance := mf.find(data, pos)
			if length < lz11MinMatch {
				tokens[n] = data[pos]
				n++
				mf.insert(data, pos)
				pos++
				continue
			}

			flags |= 1 << bit
			d := distance - 1
			switch {
			case length <= 0x10:
				tokens[n] = byte(length-1)<<4 | byte(d>>8)
				tokens[n+1] = byte(d)
				n += 2
			case length <= 0x110:
				l := length - 0x11
				tokens[n] = byte(l >> 4)
				tokens[n+1] = byte(l&0xF)<<4 | byte(d>>8)
				tokens[n+2] = byte(d)
				n += 3
			default:
				l := length - 0x111
				tokens[n] = 0x10 | byte(l>>12)
				tokens[n+1] = byte(l >> 4)
				tokens[n+2] = byte(l&0xF)<<4 | byte(d>>8)
				tokens[n+3] = byte(d)
				n += 4
			}

			for j := 0; j < length; j++ {
				mf.insert(data, pos+j)
			}
			pos += length
		}

		out = append(out, flags)
		out = append(out, tokens[:n]...)
	}

	return out
}

// LZ11Available probes the compressor with a self-test round trip.
// Callers that need compression and get false must disable it rather
// than fall back to anything slower.
func LZ11Available() bool {
	sample := append(bytes.Repeat([]byte("1LMG test vector "), 24), "tail"...)
	round, err := LZ11Decompress(LZ11Compress(sample))
	return err == nil && bytes.Equal(round, sample)
}

// Match finder: hash chains over 3-byte sequences, bounded by the
// 4096-byte window.
const (
	lz11HashBits = 14
	lz11HashSize = 1 << lz11HashBits
)

type matchFinder struct {
	head [lz11HashSize]int32
	prev []int32
}

func newMatchFinder(n int) *matchFinder {
	mf := &matchFinder{prev: make([]int32, n)}
	for i := range mf.head {
		mf.head[i] = -1
	}
	return mf
}

func lz11Hash(data []byte, pos int) uint32 {
	seq := uint32(data[pos])<<16 | uint32(data[pos+1])<<8 | uint32(data[pos+2])
	return (seq * 2654435761) >> (32 - lz11HashBits)
}

// insert records pos as a match candidate.
func (mf *matchFinder) insert(data []byte, pos int) {
	if pos+lz11MinMatch > len(data) {
		return
	}
	h := lz11Hash(data, pos)
	mf.prev[pos] = mf.head[h]
	mf.head[h] = int32(pos)
}

// find returns the longest match for data[pos:] within the window.
// Chains run newest first, so the first match of a given length is the
// smallest distance; only strictly longer candidates replace it.
func (mf *matchFinder) find(data []byte, pos int) (length, distance int) {
	if pos+lz11MinMatch > len(data) {
		return 0, 0
	}

	limit := len(data) - pos
	if limit > lz11MaxMatch {
		limit = lz11MaxMatch
	}
	floor := pos - lz11MaxDistance
	if floor < 0 {
		floor = 0
	}

	for cand := mf.head[lz11Hash(data, pos)]; cand >= int32(floor); cand = mf.prev[cand] {
		c := int(cand)
		if length > 0 && data[c+length] != data[pos+length] {
			continue
		}
		n := 0
		for n < limit && data[c+n] == data[pos+n] {
			n++
		}
		if n > length {
			length = n
			distance = pos - c
			if length == limit {
				break
			}
		}
	}

	if length < lz11MinMatch {
		return 0, 0
	}
	return length, distance
}
