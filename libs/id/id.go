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

// Package id generates the short, prefixed identifiers given to forks,
// snapshots and checkpoints.
package id

import (
	"strings"

	"github.com/google/uuid"
)

const shortLength = 8

// Generator produces unique string identifiers.
type Generator func() string

// Short returns a Generator of 8 hexadecimal characters taken from a random
// UUID. Short ids collide far more easily than full UUIDs, so callers check
// them against the records they already hold.
func Short() Generator {
	return func() string {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:shortLength]
	}
}

// Prefixed prepends prefix and a dash to every id of gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + "-" + gen()
	}
}

// Unique calls gen until it returns an id for which taken reports false, or
// until attempts are exhausted, in which case the last id and false are
// returned.
func Unique(gen Generator, taken func(string) bool, attempts int) (string, bool) {
	var candidate string
	for i := 0; i < attempts; i++ {
		candidate = gen()
		if !taken(candidate) {
			return candidate, true
		}
	}
	return candidate, false
}
