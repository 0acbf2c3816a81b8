package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPlan_JobFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		plan   outputPlan
		input  string
		base   string
		single bool
		want   job
	}{
		{
			name:   "next to input",
			plan:   outputPlan{},
			input:  filepath.Join("docs", "paper.rsm"),
			single: true,
			want:   job{Input: filepath.Join("docs", "paper.rsm"), Output: filepath.Join("docs", "paper.html")},
		},
		{
			name:   "structured with pdf",
			plan:   outputPlan{structured: true, pdf: true},
			input:  "paper.rsm",
			single: true,
			want:   job{Input: "paper.rsm", Output: "paper.json", PDF: "paper.pdf"},
		},
		{
			name:   "named output file",
			plan:   outputPlan{output: filepath.Join("out", "final.html"), pdf: true},
			input:  "paper.rsm",
			single: true,
			want:   job{Input: "paper.rsm", Output: filepath.Join("out", "final.html"), PDF: filepath.Join("out", "final.pdf")},
		},
		{
			name:   "file-like output with many inputs is a directory",
			plan:   outputPlan{output: "site.html"},
			input:  "paper.rsm",
			single: false,
			want:   job{Input: "paper.rsm", Output: filepath.Join("site.html", "paper.html")},
		},
		{
			name:  "walked input keeps layout",
			plan:  outputPlan{output: "out"},
			input: filepath.Join("src", "ch1", "intro.rsm"),
			base:  "src",
			want:  job{Input: filepath.Join("src", "ch1", "intro.rsm"), Output: filepath.Join("out", "ch1", "intro.html")},
		},
		{
			name:   "stdout with pdf",
			plan:   outputPlan{stdout: true, pdf: true},
			input:  "paper.rsm",
			single: true,
			want:   job{Input: "paper.rsm", PDF: "paper.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.plan.jobFor(tt.input, tt.base, tt.single); got != tt.want {
				t.Errorf("jobFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDiscoverJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.rsm"), cleanSource)
	writeFile(t, filepath.Join(dir, "a.rsm"), cleanSource)
	writeFile(t, filepath.Join(dir, "sub", "c.rsm"), cleanSource)
	writeFile(t, filepath.Join(dir, "readme.md"), "# not rsm")

	jobs, err := discoverJobs([]string{dir}, outputPlan{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.rsm"),
		filepath.Join(dir, "b.rsm"),
		filepath.Join(dir, "sub", "c.rsm"),
	}
	if len(jobs) != len(want) {
		t.Fatalf("got %d jobs, want %d: %+v", len(jobs), len(want), jobs)
	}
	for i, j := range jobs {
		if j.Input != want[i] {
			t.Errorf("job %d = %s, want %s", i, j.Input, want[i])
		}
	}

	if _, err := discoverJobs([]string{filepath.Join(dir, "missing.rsm")}, outputPlan{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input error = %v, want os.ErrNotExist", err)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for n, ok := range map[int]bool{-1: false, 0: true, 1: true, 8: true, 9: false} {
		err := validateWorkers(n)
		if ok && err != nil {
			t.Errorf("validateWorkers(%d) = %v", n, err)
		}
		if !ok && !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}
