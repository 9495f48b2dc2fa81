// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxcd/pkg/tar"
	"github.com/go-logr/logr"

	"github.com/controlplaneio-fluxcd/conancache/internal/cache"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

// Outcome is the result of checking one manifest entry.
type Outcome string

const (
	// OutcomePass means the synchronized file md5 matches the manifest.
	OutcomePass Outcome = "pass"

	// OutcomeFail means the md5 differs. It is a warning, not an error.
	OutcomeFail Outcome = "fail"

	// OutcomeSkip means no synchronized file corresponds to the entry,
	// which is expected for files packed inside an archive.
	OutcomeSkip Outcome = "skip"
)

// Result is the outcome for one manifest entry.
type Result struct {
	Path     string
	Expected string
	Actual   string
	Outcome  Outcome

	// Source is the synchronized file or archive the md5 was read from.
	Source string
}

// Report holds the results of a scope in manifest order.
type Report struct {
	Ref     conan.Reference
	Scope   conan.Scope
	Results []Result
}

// Count returns the number of results with the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Checker cross-checks synchronized files against scope manifests.
type Checker struct {
	logger          logr.Logger
	inspectArchives bool
}

// NewChecker returns a Checker. With inspectArchives set, entries with
// no synchronized counterpart are looked up inside the scope archives.
func NewChecker(logger logr.Logger, inspectArchives bool) *Checker {
	return &Checker{logger: logger, inspectArchives: inspectArchives}
}

// Check compares every manifest entry with the synchronized file of the
// same name in the scope. Mismatches are logged as warnings and never
// abort the run.
func (c *Checker) Check(ref conan.Reference, scope conan.Scope, m *Manifest, files []conan.LocalArtifactFile) *Report {
	log := c.logger.WithValues("ref", ref.String(), "scope", scope)

	byName := make(map[string]*conan.LocalArtifactFile, len(files))
	var archives []*conan.LocalArtifactFile
	for i := range files {
		f := &files[i]
		if f.Scope != scope {
			continue
		}
		byName[f.Name] = f
		if f.Archive() {
			archives = append(archives, f)
		}
	}

	report := &Report{Ref: ref, Scope: scope, Results: make([]Result, 0, len(m.Entries))}
	skipped := 0
	for _, e := range m.Entries {
		res := Result{Path: e.Path, Expected: e.MD5, Outcome: OutcomeSkip}
		if f, ok := byName[e.Path]; ok {
			res = compare(e, f.Checksums.MD5, f.Name)
		} else {
			skipped++
		}
		report.Results = append(report.Results, res)
	}

	if c.inspectArchives && skipped > 0 {
		for _, a := range archives {
			if err := c.inspect(report, a); err != nil {
				log.Error(err, "archive inspection failed", "file", a.Name)
			}
		}
	}

	for _, res := range report.Results {
		switch res.Outcome {
		case OutcomeFail:
			log.Info("manifest checksum mismatch", "severity", "warning",
				"file", res.Path, "source", res.Source, "expected", res.Expected, "actual", res.Actual)
		case OutcomeSkip:
			log.V(1).Info("manifest entry has no synchronized file", "file", res.Path)
		}
	}

	return report
}

// inspect extracts an archive and resolves the skipped entries
// found inside it.
func (c *Checker) inspect(report *Report, archive *conan.LocalArtifactFile) error {
	tmpDir, err := mkdirTempAbs("", "conancache-inspect-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	f, err := os.Open(archive.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := tar.Untar(f, tmpDir, tar.WithMaxUntarSize(-1)); err != nil {
		return fmt.Errorf("extracting %s failed: %w", archive.Name, err)
	}

	for i := range report.Results {
		res := &report.Results[i]
		if res.Outcome != OutcomeSkip {
			continue
		}
		rel := filepath.FromSlash(res.Path)
		if !filepath.IsLocal(rel) {
			continue
		}
		sums, _, err := cache.HashFile(filepath.Join(tmpDir, rel))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		*res = compare(Entry{Path: res.Path, MD5: res.Expected}, sums.MD5, archive.Name+":"+res.Path)
	}
	return nil
}

func compare(e Entry, actual, source string) Result {
	res := Result{Path: e.Path, Expected: e.MD5, Actual: actual, Source: source, Outcome: OutcomePass}
	if actual != e.MD5 {
		res.Outcome = OutcomeFail
	}
	return res
}

// mkdirTempAbs creates a tmp dir and returns the absolute path to the dir.
// This is required since certain OSes like MacOS create temporary files in
// e.g. `/private/var`, to which `/var` is a symlink.
func mkdirTempAbs(dir, pattern string) (string, error) {
	tmpDir, err := os.MkdirTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	tmpDir, err = filepath.EvalSymlinks(tmpDir)
	if err != nil {
		return "", fmt.Errorf("error evaluating symlink: %w", err)
	}
	return tmpDir, nil
}
