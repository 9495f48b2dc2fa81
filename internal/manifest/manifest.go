// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

var entryRegexp = regexp.MustCompile(`^(.*): (.*)$`)

// Entry is one file path with its declared md5.
type Entry struct {
	Path string
	MD5  string
}

// Manifest is a parsed conanmanifest.txt document.
type Manifest struct {
	// Header is the opaque first line, e.g. a timestamp or size token.
	Header string

	// Entries are kept in document order.
	Entries []Entry
}

// Parse decodes a manifest document. The first line is kept as an
// opaque header; every following non-empty line is "<path>: <md5>".
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if line == 1 {
			m.Header = strings.TrimSpace(text)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		match := entryRegexp.FindStringSubmatch(text)
		if match == nil {
			return nil, fmt.Errorf("malformed manifest line %d: %q", line, text)
		}
		m.Entries = append(m.Entries, Entry{Path: match[1], MD5: strings.ToLower(strings.TrimSpace(match[2]))})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if line == 0 {
		return nil, fmt.Errorf("manifest is empty")
	}
	return m, nil
}

// Lookup returns the declared md5 of a path.
func (m *Manifest) Lookup(path string) (string, bool) {
	for _, e := range m.Entries {
		if e.Path == path {
			return e.MD5, true
		}
	}
	return "", false
}
