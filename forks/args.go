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

package forks

import (
	"strconv"
	"strings"
)

const (
	forkURLFlag   = "--fork-url"
	forkBlockFlag = "--fork-block-number"
	portFlag      = "--port"
	hostFlag      = "--host"
)

// Args is the command line of a node process.
type Args []string

// Exists reports whether the flag is already set, either as "--flag value"
// or as "--flag=value".
func (a Args) Exists(name string) bool {
	name = flagName(name)
	for _, arg := range a {
		if arg == name || strings.HasPrefix(arg, name+"=") {
			return true
		}
	}
	return false
}

// Set appends the flag unless it is already set, in which case the existing
// value wins.
func (a *Args) Set(name, value string) bool {
	if a.Exists(name) {
		return false
	}
	*a = append(*a, flagName(name), value)
	return true
}

func flagName(name string) string {
	if !strings.HasPrefix(name, "--") {
		return "--" + name
	}
	return name
}

// nodeArgs builds the arguments selecting the upstream, the block, the host
// and the port. Extra arguments from the configuration cannot override them.
func nodeArgs(upstream string, block uint64, host string, port int, extra []string) Args {
	args := Args{}
	args.Set(forkURLFlag, upstream)
	args.Set(forkBlockFlag, strconv.FormatUint(block, 10))
	args.Set(portFlag, strconv.Itoa(port))
	args.Set(hostFlag, host)

	for i := 0; i < len(extra); i++ {
		name := extra[i]
		if isReservedFlag(name) {
			// Skip its value too when given as a separate argument.
			if !strings.Contains(name, "=") && i+1 < len(extra) {
				i++
			}
			continue
		}
		args = append(args, name)
	}

	return args
}

func isReservedFlag(arg string) bool {
	for _, reserved := range []string{forkURLFlag, forkBlockFlag, portFlag, hostFlag} {
		if arg == reserved || strings.HasPrefix(arg, reserved+"=") {
			return true
		}
	}
	return false
}
