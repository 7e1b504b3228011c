// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

// Package batch collects input files for the lmg tools and runs
// per-file jobs on a worker pool. Each file is independent, so jobs run
// concurrently; per-file failures go to the diagnostic logger and do
// not stop the batch.
package batch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Job is one resolved input file.
type Job struct {
	// Path is the readable input path.
	Path string

	// Rel is the path relative to the input root it was collected
	// from, used to mirror folder structure into the output root. For
	// inputs named directly it is the base name.
	Rel string
}

// Collect expands files and directories into jobs. Directories are
// walked recursively; pattern, when non-empty, filters walked files by
// base name using filepath.Match semantics. Explicitly named files
// bypass the filter.
func Collect(inputs []string, pattern string) ([]Job, error) {
	var jobs []Job
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}

		if !info.IsDir() {
			jobs = append(jobs, Job{Path: input, Rel: filepath.Base(input)})
			continue
		}

		root := input
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if pattern != "" {
				ok, err := filepath.Match(pattern, d.Name())
				if err != nil {
					return fmt.Errorf("pattern %q: %w", pattern, err)
				}
				if !ok {
					return nil
				}
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			jobs = append(jobs, Job{Path: path, Rel: rel})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return jobs, nil
}

// OutputPath resolves where a job's output belongs. When outIsDir, the
// job's relative path (or just its base name when flatten is set) is
// joined under out; otherwise out is the single output file.
func OutputPath(out string, j Job, outIsDir, flatten bool) string {
	if !outIsDir {
		return out
	}
	rel := j.Rel
	if flatten {
		rel = filepath.Base(rel)
	}
	return filepath.Join(out, rel)
}

// IsDirTarget reports whether out should be treated as a directory: it
// already is one, it ends in a path separator, or the batch has more
// than one job.
func IsDirTarget(out string, jobs int) bool {
	if strings.HasSuffix(out, string(os.PathSeparator)) || strings.HasSuffix(out, "/") {
		return true
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return true
	}
	return jobs > 1
}

// Runner executes jobs concurrently.
type Runner struct {
	// Workers is the pool size; values below 1 run sequentially.
	Workers int

	// Log receives per-file diagnostics. Nil uses slog.Default.
	Log *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

// Run invokes fn for every job and returns how many succeeded. Failures
// are logged with the offending path and skipped.
func (r *Runner) Run(jobs []Job, fn func(Job) error) int {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var done atomic.Int64
	ch := make(chan Job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				if err := fn(j); err != nil {
					r.logger().Error(err.Error(), "path", j.Path)
					continue
				}
				done.Add(1)
			}
		}()
	}

	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	wg.Wait()

	return int(done.Load())
}
