// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func testDocument() *Document {
	return &Document{
		Messages: []*Message{
			{Label: "sys_title", Text: "Ghost File[stop]"},
			{Label: "tre_0100", Text: "Hello![wait:30]\nAnyone there?[stop]"},
			{Label: "tre_0101", Text: "[speaker:2][color:3]...it moved![stop]"},
		},
	}
}

func TestContainerRoundTrip(t *testing.T) {
	doc := testDocument()

	raw, err := doc.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw[0:4]) != magic {
		t.Fatalf("output does not start with %q", magic)
	}
	if len(raw)%4 != 0 {
		t.Fatalf("output length %d is not 4-byte aligned", len(raw))
	}

	back, err := Decode(raw, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Fidelity != FidelityFull {
		t.Fatalf("fidelity = %v, want FidelityFull", back.Fidelity)
	}
	if len(back.Messages) != len(doc.Messages) {
		t.Fatalf("got %d messages, want %d", len(back.Messages), len(doc.Messages))
	}
	for i, m := range back.Messages {
		if m.Label != doc.Messages[i].Label {
			t.Errorf("message %d label = %q, want %q", i, m.Label, doc.Messages[i].Label)
		}
		if m.Text != doc.Messages[i].Text {
			t.Errorf("message %d text = %q, want %q", i, m.Text, doc.Messages[i].Text)
		}
	}

	// Stability: a second decode of a re-encode matches the first.
	raw2, err := back.Encode(nil)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	again, err := Decode(raw2, nil)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if again.Fingerprint() != back.Fingerprint() {
		t.Fatal("decode(encode(decode(raw))) differs from decode(raw)")
	}
}

func TestContainerTextCycle(t *testing.T) {
	doc := testDocument()
	raw, err := doc.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	first, err := Decode(raw, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	parsed, err := ParseText(first.MarshalText())
	if err != nil {
		t.Fatalf("parse text: %v", err)
	}
	rebuilt, err := parsed.Encode(nil)
	if err != nil {
		t.Fatalf("encode from text: %v", err)
	}
	second, err := Decode(rebuilt, nil)
	if err != nil {
		t.Fatalf("decode rebuilt: %v", err)
	}

	if second.Fingerprint() != first.Fingerprint() {
		t.Fatal("binary -> text -> binary cycle changed the content")
	}
}

func TestContainerMysteryPreserved(t *testing.T) {
	doc := testDocument()
	doc.Mystery = [4]byte{0xDE, 0xAD, 0xBE, 0xEF}

	raw, err := doc.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := Decode(raw, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Mystery != doc.Mystery {
		t.Fatalf("mystery word = % X, want % X", back.Mystery, doc.Mystery)
	}
}

func TestContainerTrailingPadStripped(t *testing.T) {
	// "hell[stop]" is 5 units = 10 bytes, so the data section gains a
	// 2-byte alignment pad that decodes as a trailing zero unit.
	doc := &Document{Messages: []*Message{{Label: "m", Text: "hell[stop]"}}}
	raw, err := doc.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	back, err := Decode(raw, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := back.Messages[0].Text; got != "hell[stop]" {
		t.Fatalf("got %q, want %q", got, "hell[stop]")
	}
}

func TestContainerCompressed(t *testing.T) {
	doc := testDocument()
	compressed, err := doc.Encode(&Options{Compression: CompressAlways})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if compressed[0] != lz11Type {
		t.Fatalf("stream type = 0x%02X, want 0x%02X", compressed[0], lz11Type)
	}
	if string(compressed[5:9]) != magic {
		t.Fatalf("magic not at offset 5: % X", compressed[:9])
	}

	back, err := Decode(compressed, nil)
	if err != nil {
		t.Fatalf("decode compressed: %v", err)
	}
	if len(back.Messages) != len(doc.Messages) {
		t.Fatalf("got %d messages, want %d", len(back.Messages), len(doc.Messages))
	}

	if _, err := Decode(compressed, &Options{Compression: CompressNever}); !errors.Is(err, ErrCompressed) {
		t.Fatalf("got %v, want ErrCompressed", err)
	}
}

func TestContainerFormatErrors(t *testing.T) {
	cases := map[string][]byte{
		"empty":        {},
		"garbage":      []byte("definitely not a container"),
		"short":        []byte("1LM"),
		"header only":  []byte("1LMG"),
		"bad sections": append([]byte("1LMG"), bytes.Repeat([]byte{0xFF}, headerSize-4)...),
	}
	for name, data := range cases {
		if _, err := Decode(data, nil); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: got %v, want ErrFormat", name, err)
		}
	}
}

func TestContainerEmptyResource(t *testing.T) {
	var raw []byte
	h := header{stringLen: stringPlaceholder, tableLen: 4}
	raw = h.appendTo(raw)
	raw = append(raw, '*', 0, 0, 0)
	raw = binary.LittleEndian.AppendUint32(raw, 0) // message count

	if _, err := Decode(raw, nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("got %v, want ErrEmpty", err)
	}
}

func TestDeriveLengths(t *testing.T) {
	msgs := []*Message{
		{Pointer: 0x34},
		{Pointer: 0x34 + 10},
		{Pointer: 0x34 + 10 + 5},
	}
	if err := deriveLengths(msgs, 0x34+10+5+7); err != nil {
		t.Fatalf("derive: %v", err)
	}
	want := []uint32{10, 5, 7}
	for i, m := range msgs {
		if m.Length != want[i] {
			t.Errorf("length[%d] = %d, want %d", i, m.Length, want[i])
		}
	}
}

func TestDeriveLengthsUnordered(t *testing.T) {
	// Offsets out of table order still derive from ascending deltas.
	msgs := []*Message{
		{Pointer: 0x34 + 8},
		{Pointer: 0x34},
	}
	if err := deriveLengths(msgs, 0x34+8+6); err != nil {
		t.Fatalf("derive: %v", err)
	}
	if msgs[0].Length != 6 || msgs[1].Length != 8 {
		t.Fatalf("lengths = [%d %d], want [6 8]", msgs[0].Length, msgs[1].Length)
	}
}

func TestEncodeRejectsBadMessage(t *testing.T) {
	doc := &Document{Messages: []*Message{
		{Label: "ok", Text: "fine[stop]"},
		{Label: "bad", Text: "[nonsense]"},
	}}
	if _, err := doc.Encode(nil); !errors.Is(err, ErrStructuralText) {
		t.Fatalf("got %v, want ErrStructuralText", err)
	}

	if _, err := (&Document{}).Encode(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty document: got %v, want ErrEmpty", err)
	}
}
