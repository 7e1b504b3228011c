// Copyright (c) 2026 treader
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func writeTree(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"a.lmg",
		"sub/b.lmg",
		"sub/deep/c.lmg",
		"notes.txt",
	})

	jobs, err := Collect([]string{root}, "*.lmg")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	var rels []string
	for _, j := range jobs {
		rels = append(rels, filepath.ToSlash(j.Rel))
	}
	sort.Strings(rels)
	want := []string{"a.lmg", "sub/b.lmg", "sub/deep/c.lmg"}
	if len(rels) != len(want) {
		t.Fatalf("got %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Fatalf("got %v, want %v", rels, want)
		}
	}
}

func TestCollectExplicitFileBypassesFilter(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"notes.txt"})

	jobs, err := Collect([]string{filepath.Join(root, "notes.txt")}, "*.lmg")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Rel != "notes.txt" {
		t.Fatalf("got %v, want the named file", jobs)
	}
}

func TestCollectMissingInput(t *testing.T) {
	if _, err := Collect([]string{filepath.Join(t.TempDir(), "absent")}, ""); err == nil {
		t.Fatal("missing input accepted")
	}
}

func TestOutputPath(t *testing.T) {
	j := Job{Path: "/in/sub/f.lmg", Rel: filepath.FromSlash("sub/f.lmg")}

	if got := OutputPath("out", j, true, false); got != filepath.FromSlash("out/sub/f.lmg") {
		t.Fatalf("mirrored path = %q", got)
	}
	if got := OutputPath("out", j, true, true); got != filepath.FromSlash("out/f.lmg") {
		t.Fatalf("flattened path = %q", got)
	}
	if got := OutputPath("single.txt", j, false, false); got != "single.txt" {
		t.Fatalf("single-file path = %q", got)
	}
}

func TestRunner(t *testing.T) {
	jobs := []Job{{Path: "a"}, {Path: "b"}, {Path: "c"}, {Path: "d"}}

	var mu sync.Mutex
	seen := map[string]bool{}

	r := &Runner{
		Workers: 3,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	done := r.Run(jobs, func(j Job) error {
		mu.Lock()
		seen[j.Path] = true
		mu.Unlock()
		if j.Path == "c" {
			return errors.New("boom")
		}
		return nil
	})

	if done != 3 {
		t.Fatalf("done = %d, want 3", done)
	}
	if len(seen) != 4 {
		t.Fatalf("ran %d jobs, want 4", len(seen))
	}
}
