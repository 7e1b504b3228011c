// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import "github.com/cespare/xxhash/v2"

// Fingerprint digests the document's semantic content: labels, order,
// and rendered text. Two documents with equal fingerprints decode to
// the same messages, so the batch tools use it to verify that a rebuilt
// container re-decodes to what was written. Padding and other
// byte-level differences in the binary form do not affect it.
func (d *Document) Fingerprint() uint64 {
	h := xxhash.New()
	for _, m := range d.Messages {
		_, _ = h.WriteString(m.Label)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(m.Text)
		_, _ = h.Write([]byte{0, 0})
	}
	return h.Sum64()
}
