// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

/*
Package lmg provides pure Go support for reading and writing 1LMG text
resources, the binary container used by the game's dialogue and script
files, together with the LZ11 compression scheme the engine expects on
the wire.

A 1LMG container holds an ordered list of labeled messages. Each message
payload is a stream of little-endian 16-bit units: units that match the
command table are engine opcodes (line break, stop marker, display
commands), everything else is UTF-16 text. The package round-trips the
container to and from a human-editable annotated text form, so script
files can be dumped, translated, and rebuilt.

# Basic Usage

Decoding a container into editable text:

	raw, err := os.ReadFile("tre_01.lmg")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := lmg.Decode(raw, nil)
	if err != nil {
		log.Fatal(err)
	}
	os.WriteFile("tre_01.lmg.txt", doc.MarshalText(), 0644)

Rebuilding a container from edited text:

	text, err := os.ReadFile("tre_01.lmg.txt")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := lmg.ParseText(text)
	if err != nil {
		log.Fatal(err)
	}
	raw, err := doc.Encode(&lmg.Options{Compression: lmg.CompressAlways})
	if err != nil {
		log.Fatal(err)
	}
	os.WriteFile("tre_01.lmg.lz", raw, 0644)

# Text Form

Each message is written as a label line (with an informational Position
annotation), a "===" separator, the rendered text, and a closing "===".
Opcodes render as bracket tokens such as [stop] or [color:3]; a literal
"[" in game text is escaped as "[[". Line breaks in the text are real
line-break opcodes in the payload.

# Fidelity

Dialogue files carry a minimal 4-byte string section and round-trip
exactly. Script files store extra data in the string section that this
package does not reconstruct; decoding them is reported as
[FidelityPartial] and is intended for inspection, not rebuilding.

# Limitations

  - No support for string-section content (script file internals)
  - Command parameters are checked structurally, not semantically
*/
package lmg
