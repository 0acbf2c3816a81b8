package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-rsm/internal/fileutil"
	"github.com/alnah/go-rsm/internal/pdf"
)

// sourceExt is the manuscript file extension looked up in directories.
const sourceExt = ".rsm"

// job is one manuscript to build.
type job struct {
	Input  string
	Output string // empty writes to stdout
	PDF    string // empty skips PDF export
}

// outputPlan describes where builds are written.
type outputPlan struct {
	output     string // -o value: file or directory
	stdout     bool
	structured bool
	pdf        bool
}

func (p outputPlan) ext() string {
	if p.structured {
		return "json"
	}
	return "html"
}

// discoverJobs expands inputs into jobs. Directories are walked for .rsm
// files and their layout is kept under the output directory.
func discoverJobs(inputs []string, plan outputPlan) ([]job, error) {
	var jobs []job
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			jobs = append(jobs, plan.jobFor(input, "", len(inputs) == 1))
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() || filepath.Ext(path) != sourceExt {
				return nil
			}
			jobs = append(jobs, plan.jobFor(path, input, false))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// jobFor resolves the output paths of one input. single allows -o to name
// the output file itself.
func (p outputPlan) jobFor(input, baseDir string, single bool) job {
	j := job{Input: input}

	if single && p.isFileOutput() {
		if !p.stdout {
			j.Output = p.output
		}
		if p.pdf {
			j.PDF = strings.TrimSuffix(p.output, filepath.Ext(p.output)) + ".pdf"
		}
		return j
	}

	outDir := p.output
	if outDir != "" && baseDir != "" {
		if rel, err := filepath.Rel(baseDir, filepath.Dir(input)); err == nil {
			outDir = filepath.Join(outDir, rel)
		}
	}
	if !p.stdout {
		j.Output = fileutil.OutputPath(input, outDir, p.ext())
	}
	if p.pdf {
		j.PDF = fileutil.OutputPath(input, outDir, "pdf")
	}
	return j
}

// isFileOutput reports whether -o names a file rather than a directory.
func (p outputPlan) isFileOutput() bool {
	switch strings.ToLower(filepath.Ext(p.output)) {
	case ".html", ".htm", ".json":
		return true
	}
	return false
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > pdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, pdf.MaxPoolSize)
	}
	return nil
}
