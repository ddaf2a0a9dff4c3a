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

package cmd

import "strings"

// Zone tags the operations with the sensitivity of the work they serve. It
// is reported, never enforced.
type Zone string

const (
	CriticalZone Zone = "critical"
	ElevatedZone Zone = "elevated"
	StandardZone Zone = "standard"
	LocalZone    Zone = "local"
)

var SupportedZones = []string{
	string(CriticalZone),
	string(ElevatedZone),
	string(StandardZone),
	string(LocalZone),
}

// ParseZone is case-insensitive. An unknown zone yields the standard zone
// and false.
func ParseZone(s string) (Zone, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, z := range SupportedZones {
		if name == z {
			return Zone(z), true
		}
	}
	return StandardZone, false
}

func (z Zone) String() string {
	return string(z)
}
