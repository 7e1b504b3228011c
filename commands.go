// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package lmg

import (
	"fmt"
	"sort"
	"strings"
)

// Command describes one opcode recognized in a message payload. Opcodes
// occupy the 16-bit unit values the game never uses as text.
type Command struct {
	// Code is the opcode's unit value.
	Code uint16

	// Name is the token name rendered inside bracket escapes, e.g.
	// "stop" renders as [stop]. Ignored when Literal is set.
	Name string

	// Literal, when non-empty, renders the opcode as this exact text
	// instead of a bracket token. Only valid for parameterless
	// commands; used for the line break.
	Literal string

	// Params is the fixed number of 16-bit parameter units following
	// the opcode. Ignored when Variadic is set.
	Params int

	// Variadic marks commands whose first unit is a count of further
	// parameter units.
	Variadic bool

	// ParamMax is the largest allowed parameter value. Zero means the
	// full unit range (0xFFFF).
	ParamMax uint16

	// Stop marks the end-of-message sentinel.
	Stop bool
}

func (c *Command) paramMax() uint16 {
	if c.ParamMax == 0 {
		return 0xFFFF
	}
	return c.ParamMax
}

// CommandTable is a read-only bidirectional opcode mapping. Construct
// one with NewCommandTable (or use DefaultCommandTable) at startup and
// share it freely; lookups do not mutate it.
type CommandTable struct {
	byCode   map[uint16]*Command
	byName   map[string]*Command
	literals []*Command // longest literal first
	stop     *Command
}

// NewCommandTable builds a table from a command set. The set must
// contain exactly one stop sentinel, and codes, names, and literals
// must not collide.
func NewCommandTable(cmds []Command) (*CommandTable, error) {
	t := &CommandTable{
		byCode: make(map[uint16]*Command, len(cmds)),
		byName: make(map[string]*Command, len(cmds)),
	}

	for i := range cmds {
		c := &cmds[i]
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("duplicate opcode 0x%04X", c.Code)
		}
		t.byCode[c.Code] = c

		if c.Literal != "" {
			if c.Params != 0 || c.Variadic {
				return nil, fmt.Errorf("literal opcode 0x%04X cannot take parameters", c.Code)
			}
			t.literals = append(t.literals, c)
		} else {
			if c.Name == "" {
				return nil, fmt.Errorf("opcode 0x%04X has neither name nor literal", c.Code)
			}
			if _, dup := t.byName[c.Name]; dup {
				return nil, fmt.Errorf("duplicate token name %q", c.Name)
			}
			t.byName[c.Name] = c
		}

		if c.Stop {
			if t.stop != nil {
				return nil, fmt.Errorf("multiple stop sentinels (0x%04X and 0x%04X)", t.stop.Code, c.Code)
			}
			if c.Params != 0 || c.Variadic || c.Literal != "" {
				return nil, fmt.Errorf("stop sentinel 0x%04X must be a plain token", c.Code)
			}
			t.stop = c
		}
	}

	if t.stop == nil {
		return nil, fmt.Errorf("command set has no stop sentinel")
	}

	// Longest literal wins during the encode scan.
	sort.Slice(t.literals, func(i, j int) bool {
		return len(t.literals[i].Literal) > len(t.literals[j].Literal)
	})

	return t, nil
}

// StopToken returns the rendered form of the stop sentinel, e.g. "[stop]".
func (t *CommandTable) StopToken() string {
	return "[" + t.stop.Name + "]"
}

// command looks up an opcode by unit value.
func (t *CommandTable) command(code uint16) (*Command, bool) {
	c, ok := t.byCode[code]
	return c, ok
}

// tokenCommand looks up a bracket token by name.
func (t *CommandTable) tokenCommand(name string) (*Command, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// matchLiteral returns the longest literal command prefixing s.
func (t *CommandTable) matchLiteral(s string) (*Command, bool) {
	for _, c := range t.literals {
		if strings.HasPrefix(s, c.Literal) {
			return c, true
		}
	}
	return nil, false
}

// defaultCommands is the opcode set observed in the dialogue files.
// Codes live in the 0xFFxx range, which the text encoding never emits.
var defaultCommands = []Command{
	{Code: 0xFFFF, Literal: "\n"},
	{Code: 0xFFFE, Name: "stop", Stop: true},
	{Code: 0xFFFD, Name: "wait", Params: 1},
	{Code: 0xFFFC, Name: "speed", Params: 1, ParamMax: 0xFF},
	{Code: 0xFFFB, Name: "color", Params: 1, ParamMax: 0xFF},
	{Code: 0xFFFA, Name: "speaker", Params: 1},
	{Code: 0xFFF9, Name: "sound", Params: 2},
	{Code: 0xFFF8, Name: "shake", Params: 2},
	{Code: 0xFFF7, Name: "icon", Params: 1},
	{Code: 0xFFF6, Name: "flag", Params: 2},
	{Code: 0xFFF5, Name: "pause"},
	{Code: 0xFFF4, Name: "clear"},
	{Code: 0xFFF3, Name: "choice", Variadic: true},
	{Code: 0xFFF2, Name: "jump", Params: 1},
}

// DefaultCommandTable returns the built-in table for the dialogue
// files. The command set is static data; games with patched engines can
// pass their own set through NewCommandTable instead.
func DefaultCommandTable() *CommandTable {
	t, err := NewCommandTable(defaultCommands)
	if err != nil {
		panic("lmg: invalid built-in command set: " + err.Error())
	}
	return t
}
