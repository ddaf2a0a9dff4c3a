// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package cli formats the help texts of the commands.
package cli

import (
	"strings"
)

const software = "anchor"

// LongDesc strips the indentation of a long description written as an
// indented raw string.
func LongDesc(s string) string {
	return strings.Join(dedent(s), "\n")
}

// Examples strips the indentation of the examples, indents them by two
// spaces, and replaces the {{.Software}} placeholder by the binary name.
func Examples(s string) string {
	lines := dedent(strings.ReplaceAll(s, "{{.Software}}", software))
	for i, line := range lines {
		if len(line) > 0 {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}

func dedent(s string) []string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && len(strings.TrimSpace(lines[0])) == 0 {
		lines = lines[1:]
	}
	for len(lines) > 0 && len(strings.TrimSpace(lines[len(lines)-1])) == 0 {
		lines = lines[:len(lines)-1]
	}

	indent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if len(trimmed) == 0 {
			continue
		}
		if n := len(line) - len(trimmed); indent == -1 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		if len(strings.TrimSpace(line)) == 0 {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimRight(line[indent:], " \t")
	}
	return lines
}
