// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

// Command lmg-encode rebuilds 1LMG containers from edited text files.
//
// Usage:
//
//	lmg-encode [flags] input [input...]
//
// The ".txt" suffix is stripped from output names, so "file.lmg.txt"
// becomes "file.lmg". With -z auto (the default), outputs ending in
// ".lz" are LZ11-compressed the way the engine expects.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	lmg "github.com/treader/go-lmg"
	"github.com/treader/go-lmg/internal/batch"
)

type config struct {
	Output  string `env:"LMG_OUTPUT_DIR" envDefault:"encoded/"`
	ErrLog  string `env:"LMG_ERROR_LOG"`
	Workers int    `env:"LMG_WORKERS" envDefault:"4"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "lmg-encode:", err)
		os.Exit(2)
	}

	out := flag.String("o", cfg.Output, "output file or folder")
	wildcard := flag.String("w", "", "filter folder contents by base-name `pattern`")
	zMode := flag.String("z", "auto", "compression: never, auto (by .lz suffix), or always")
	flat := flag.Bool("flat", false, "drop input folder structure in the output")
	quiet := flag.Bool("q", false, "skip the summary line")
	verify := flag.Bool("verify", false, "re-decode each output and compare content digests")
	errLog := flag.String("e", cfg.ErrLog, "append diagnostics to this `file`")
	workers := flag.Int("j", cfg.Workers, "parallel workers")
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "lmg-encode: no inputs")
		flag.Usage()
		os.Exit(2)
	}
	if *zMode != "never" && *zMode != "auto" && *zMode != "always" {
		fmt.Fprintf(os.Stderr, "lmg-encode: bad -z mode %q\n", *zMode)
		os.Exit(2)
	}

	log, closeLog, err := newLogger(*errLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lmg-encode:", err)
		os.Exit(2)
	}
	defer closeLog()

	if *zMode != "never" && !lmg.LZ11Available() {
		// A failed probe disables compression outright; there is no
		// slower fallback worth waiting on.
		log.Warn("lz11 self-test failed; writing uncompressed containers")
		*zMode = "never"
	}

	jobs, err := batch.Collect(inputs, *wildcard)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lmg-encode:", err)
		os.Exit(2)
	}
	outIsDir := batch.IsDirTarget(*out, len(jobs))
	if !outIsDir && len(jobs) > 1 {
		fmt.Fprintln(os.Stderr, "lmg-encode: multiple inputs need a folder output")
		os.Exit(2)
	}

	runner := &batch.Runner{Workers: *workers, Log: log}
	done := runner.Run(jobs, func(j batch.Job) error {
		text, err := os.ReadFile(j.Path)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		doc, err := lmg.ParseText(text)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}

		dest := strings.TrimSuffix(batch.OutputPath(*out, j, outIsDir, *flat), ".txt")

		mode := lmg.CompressAuto
		if *zMode == "always" || (*zMode == "auto" && strings.HasSuffix(dest, ".lz")) {
			mode = lmg.CompressAlways
		}

		raw, err := doc.Encode(&lmg.Options{Compression: mode})
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		if *verify {
			round, err := lmg.Decode(raw, nil)
			if err != nil {
				return fmt.Errorf("verify decode: %w", err)
			}
			if round.Fingerprint() != doc.Fingerprint() {
				return fmt.Errorf("verify: rebuilt container does not decode to its source text")
			}
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("create output folder: %w", err)
		}
		if err := os.WriteFile(dest, raw, 0644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		return nil
	})

	if !*quiet {
		fmt.Printf("encoded %d of %d file(s)\n", done, len(jobs))
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
