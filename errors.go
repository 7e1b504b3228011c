// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import "errors"

// Sentinel errors distinguishing the failure classes a batch caller
// needs to tell apart. All errors returned by this package wrap one of
// these, so use errors.Is to classify.
var (
	// ErrFormat means the input is not a 1LMG container, plain or
	// compressed.
	ErrFormat = errors.New("not a 1LMG resource")

	// ErrCompressed means the input is LZ11-compressed but compression
	// support was disabled by the caller.
	ErrCompressed = errors.New("resource is compressed")

	// ErrEmpty means the container is well-formed but its message count
	// is zero, so there is nothing to decode.
	ErrEmpty = errors.New("resource has no messages")

	// ErrPayload means a message payload is structurally broken: an
	// opcode claimed more units than remain, or the payload is not
	// 16-bit aligned.
	ErrPayload = errors.New("malformed message payload")

	// ErrStructuralText means the annotated text form could not be
	// parsed back: mismatched label/text blocks or a malformed escape
	// token.
	ErrStructuralText = errors.New("malformed text input")

	// ErrParameter means an escape token carried a parameter value
	// outside the width declared for its opcode.
	ErrParameter = errors.New("parameter out of range")

	// ErrMalformedStream means an LZ11 stream is truncated or its
	// declared sizes are inconsistent.
	ErrMalformedStream = errors.New("lz11: malformed stream")

	// ErrBadReference means an LZ11 back-reference points before the
	// start of the produced output.
	ErrBadReference = errors.New("lz11: reference out of bounds")
)
