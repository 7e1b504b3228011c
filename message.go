// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Message is one labeled text unit inside a container. Order within
// Document.Messages is load-bearing: it defines pointer-table order and
// label order when the container is rebuilt.
type Message struct {
	// Label is the message's name in the label section.
	Label string

	// Pointer is the message's absolute data offset in the source
	// file. Informational on the decode path; rebuilt offsets are
	// computed fresh on encode.
	Pointer uint32

	// Length is the payload byte count, derived from the delta to the
	// next pointer. Decode path only.
	Length uint32

	// Text is the rendered form of the payload.
	Text string
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Decode renders a raw message payload as escaped human-readable text.
// The payload is scanned left to right as 16-bit little-endian units
// with no backtracking: command units render as bracket tokens or their
// declared literal, zero units render as the digit 0 (alignment
// padding), and everything else is UTF-16 text. A command claiming more
// units than remain fails with ErrPayload.
func (t *CommandTable) Decode(payload []byte) (string, error) {
	if len(payload)%2 != 0 {
		return "", fmt.Errorf("%d byte payload is not unit aligned: %w", len(payload), ErrPayload)
	}

	units := len(payload) / 2
	unit := func(i int) uint16 {
		return binary.LittleEndian.Uint16(payload[i*2:])
	}

	var b strings.Builder
	var run []byte // pending UTF-16LE literal bytes

	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		text, err := utf16le.NewDecoder().Bytes(run)
		run = run[:0]
		if err != nil {
			return fmt.Errorf("utf-16 literal run: %w", err)
		}
		// A literal "[" would read back as a token opener.
		b.WriteString(strings.ReplaceAll(string(text), "[", "[["))
		return nil
	}

	for i := 0; i < units; {
		u := unit(i)

		cmd, ok := t.command(u)
		if !ok {
			if u == 0 {
				if err := flush(); err != nil {
					return "", err
				}
				b.WriteByte('0')
			} else {
				run = append(run, payload[i*2], payload[i*2+1])
			}
			i++
			continue
		}

		if err := flush(); err != nil {
			return "", err
		}
		i++

		count := cmd.Params
		if cmd.Variadic {
			if i >= units {
				return "", fmt.Errorf("opcode [%s] at unit %d is missing its count: %w", cmd.Name, i-1, ErrPayload)
			}
			count = int(unit(i))
			i++
		}
		if i+count > units {
			return "", fmt.Errorf("opcode [%s] at unit %d wants %d parameters, %d units remain: %w",
				cmd.Name, i-1, count, units-i, ErrPayload)
		}

		if cmd.Literal != "" {
			b.WriteString(cmd.Literal)
			continue
		}

		b.WriteByte('[')
		b.WriteString(cmd.Name)
		for p := 0; p < count; p++ {
			if p == 0 {
				b.WriteByte(':')
			} else {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatUint(uint64(unit(i+p)), 10))
		}
		b.WriteByte(']')
		i += count
	}

	if err := flush(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Encode converts escaped text back into a raw message payload. It is
// the inverse scan of Decode: bracket tokens become opcodes, declared
// literals become their opcodes, and literal runs are encoded as
// UTF-16. Unknown or unterminated tokens fail with ErrStructuralText;
// parameter values above the opcode's declared width fail with
// ErrParameter.
func (t *CommandTable) Encode(text string) ([]byte, error) {
	var out []byte
	var run strings.Builder

	flush := func() error {
		if run.Len() == 0 {
			return nil
		}
		encoded, err := utf16le.NewEncoder().Bytes([]byte(run.String()))
		run.Reset()
		if err != nil {
			return fmt.Errorf("utf-16 literal run: %w", err)
		}
		out = append(out, encoded...)
		return nil
	}

	appendUnit := func(u uint16) {
		out = binary.LittleEndian.AppendUint16(out, u)
	}

	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], "[[") {
			run.WriteByte('[')
			i += 2
			continue
		}

		if cmd, ok := t.matchLiteral(text[i:]); ok {
			if err := flush(); err != nil {
				return nil, err
			}
			appendUnit(cmd.Code)
			i += len(cmd.Literal)
			continue
		}

		if text[i] != '[' {
			run.WriteByte(text[i])
			i++
			continue
		}

		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated escape token at offset %d: %w", i, ErrStructuralText)
		}
		body := text[i+1 : i+end]
		i += end + 1

		name, args, hasArgs := strings.Cut(body, ":")
		cmd, ok := t.tokenCommand(name)
		if !ok {
			return nil, fmt.Errorf("unknown escape token [%s]: %w", body, ErrStructuralText)
		}

		var params []uint16
		if hasArgs {
			for _, arg := range strings.Split(args, ",") {
				v, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("token [%s]: bad parameter %q: %w", body, arg, ErrStructuralText)
				}
				if v > uint64(cmd.paramMax()) {
					return nil, fmt.Errorf("token [%s]: parameter %d exceeds maximum %d: %w",
						body, v, cmd.paramMax(), ErrParameter)
				}
				params = append(params, uint16(v))
			}
		}

		switch {
		case cmd.Variadic:
			if len(params) > 0xFFFF {
				return nil, fmt.Errorf("token [%s]: too many parameters: %w", body, ErrParameter)
			}
		case len(params) != cmd.Params:
			return nil, fmt.Errorf("token [%s]: wants %d parameters, got %d: %w",
				body, cmd.Params, len(params), ErrStructuralText)
		}

		if err := flush(); err != nil {
			return nil, err
		}
		appendUnit(cmd.Code)
		if cmd.Variadic {
			appendUnit(uint16(len(params)))
		}
		for _, p := range params {
			appendUnit(p)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}
