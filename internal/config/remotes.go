// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"bufio"
	"fmt"
	"strings"
)

// ParseRemotesText parses the conan remotes.txt format,
// one "<name> <url> <True|False>" entry per line.
// The verify flag is optional and defaults to True.
func ParseRemotesText(text string) ([]Remote, error) {
	var remotes []Remote

	scanner := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected '<name> <url> [True|False]', got %q", line, scanner.Text())
		}

		r := Remote{Name: fields[0], URL: fields[1]}
		if len(fields) == 3 {
			switch strings.ToLower(fields[2]) {
			case "true":
			case "false":
				verify := false
				r.VerifySSL = &verify
			default:
				return nil, fmt.Errorf("line %d: invalid verify_ssl value %q", line, fields[2])
			}
		}
		remotes = append(remotes, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return remotes, nil
}
