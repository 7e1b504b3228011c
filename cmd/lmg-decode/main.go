// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

// Command lmg-decode dumps 1LMG containers into editable text files.
//
// Usage:
//
//	lmg-decode [flags] input [input...]
//
// Inputs may be files or folders; folders are walked recursively and
// their structure is mirrored into the output folder. Each container
// becomes <name>.txt next to its relative path.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	lmg "github.com/treader/go-lmg"
	"github.com/treader/go-lmg/internal/batch"
)

type config struct {
	Output  string `env:"LMG_OUTPUT_DIR" envDefault:"decoded/"`
	ErrLog  string `env:"LMG_ERROR_LOG"`
	Workers int    `env:"LMG_WORKERS" envDefault:"4"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "lmg-decode:", err)
		os.Exit(2)
	}

	out := flag.String("o", cfg.Output, "output file or folder")
	wildcard := flag.String("w", "", "filter folder contents by base-name `pattern`")
	noCompress := flag.Bool("n", false, "refuse compressed inputs instead of decompressing")
	flat := flag.Bool("flat", false, "drop input folder structure in the output")
	quiet := flag.Bool("q", false, "skip the summary line")
	errLog := flag.String("e", cfg.ErrLog, "append diagnostics to this `file`")
	workers := flag.Int("j", cfg.Workers, "parallel workers")
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "lmg-decode: no inputs")
		flag.Usage()
		os.Exit(2)
	}

	log, closeLog, err := newLogger(*errLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lmg-decode:", err)
		os.Exit(2)
	}
	defer closeLog()

	mode := lmg.CompressAuto
	if *noCompress {
		mode = lmg.CompressNever
	} else if !lmg.LZ11Available() {
		log.Warn("lz11 self-test failed; compressed inputs will be refused")
		mode = lmg.CompressNever
	}

	jobs, err := batch.Collect(inputs, *wildcard)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lmg-decode:", err)
		os.Exit(2)
	}
	outIsDir := batch.IsDirTarget(*out, len(jobs))
	if !outIsDir && len(jobs) > 1 {
		fmt.Fprintln(os.Stderr, "lmg-decode: multiple inputs need a folder output")
		os.Exit(2)
	}

	opts := &lmg.Options{Compression: mode}
	runner := &batch.Runner{Workers: *workers, Log: log}
	done := runner.Run(jobs, func(j batch.Job) error {
		raw, err := os.ReadFile(j.Path)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		doc, err := lmg.Decode(raw, opts)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if doc.Fidelity == lmg.FidelityPartial {
			log.Warn("partial decode; string section was not reconstructed", "path", j.Path)
		}

		dest := batch.OutputPath(*out, j, outIsDir, *flat) + ".txt"
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("create output folder: %w", err)
		}
		if err := os.WriteFile(dest, doc.MarshalText(), 0644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		return nil
	})

	if !*quiet {
		fmt.Printf("decoded %d of %d file(s)\n", done, len(jobs))
	}
	if done < len(jobs) {
		os.Exit(1)
	}
}

// newLogger builds the diagnostic sink, teed to an append-only error
// log when one is configured.
func newLogger(path string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}

	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("error log: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}

	return slog.New(slog.NewTextHandler(w, nil)), closeLog, nil
}
