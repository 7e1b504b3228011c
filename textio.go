// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"fmt"
	"strings"
)

// Text interchange format: blocks of
//
//	LABEL Position 0x34
//	===
//	rendered text
//	===
//
// The Position annotation records where the message sat in the source
// file; it is informational only and discarded when parsing back.
const (
	textSeparator      = "==="
	positionAnnotation = " Position"
)

// MarshalText renders the document in the editable interchange form.
func (d *Document) MarshalText() []byte {
	var b strings.Builder
	for _, m := range d.Messages {
		b.WriteString(m.Label)
		fmt.Fprintf(&b, "%s 0x%X\n", positionAnnotation, m.Pointer)
		b.WriteString(textSeparator)
		b.WriteByte('\n')
		b.WriteString(m.Text)
		b.WriteByte('\n')
		b.WriteString(textSeparator)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ParseText parses the interchange form back into a document. The
// separators must delimit an even number of segments (label, text,
// label, text, ...); anything else fails with ErrStructuralText.
// Message payloads are not transcoded here; a bad escape token
// surfaces when the document is encoded.
func ParseText(data []byte) (*Document, error) {
	var segments []string
	var current []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == textSeparator {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	// The canonical form ends with a separator and a newline, leaving
	// an empty tail. A non-empty tail is an unterminated block and
	// counts as a segment so the parity check rejects it.
	if tail := strings.Join(current, "\n"); strings.TrimSpace(tail) != "" {
		segments = append(segments, tail)
	}

	if len(segments) == 0 || len(segments)%2 != 0 {
		return nil, fmt.Errorf("%d segments between separators, want an even count of label/text pairs: %w",
			len(segments), ErrStructuralText)
	}

	doc := &Document{Messages: make([]*Message, 0, len(segments)/2)}
	for i := 0; i < len(segments); i += 2 {
		label := strings.TrimSpace(segments[i])
		label, _, _ = strings.Cut(label, positionAnnotation)
		doc.Messages = append(doc.Messages, &Message{
			Label: label,
			Text:  segments[i+1],
		})
	}
	return doc, nil
}
