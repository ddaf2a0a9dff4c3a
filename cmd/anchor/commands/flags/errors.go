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

package flags

import (
	"fmt"

	"code.vegaprotocol.io/anchor/types"
)

// The errors below wrap types.ErrSchema so they are reported as invalid
// input.

type FlagMustBeSpecifiedError struct {
	FlagName string
}

func MustBeSpecifiedError(name string) error {
	return FlagMustBeSpecifiedError{FlagName: name}
}

func (e FlagMustBeSpecifiedError) Error() string {
	return fmt.Sprintf("--%s flag must be specified", e.FlagName)
}

func (e FlagMustBeSpecifiedError) Unwrap() error {
	return types.ErrSchema
}

type FlagInvalidFormatError struct {
	FlagName string
	Reason   string
}

func InvalidFormatError(name, reason string) error {
	return FlagInvalidFormatError{FlagName: name, Reason: reason}
}

func (e FlagInvalidFormatError) Error() string {
	return fmt.Sprintf("--%s flag has an invalid format: %s", e.FlagName, e.Reason)
}

func (e FlagInvalidFormatError) Unwrap() error {
	return types.ErrSchema
}

type ArgMustBeSpecifiedError struct {
	ArgName string
}

func ArgMustBeSpecified(name string) error {
	return ArgMustBeSpecifiedError{ArgName: name}
}

func (e ArgMustBeSpecifiedError) Error() string {
	return fmt.Sprintf("%s argument must be specified", e.ArgName)
}

func (e ArgMustBeSpecifiedError) Unwrap() error {
	return types.ErrSchema
}

type TooManyArgsError struct {
	Expected int
	Got      int
}

func (e TooManyArgsError) Error() string {
	return fmt.Sprintf("expected %d argument(s), got %d", e.Expected, e.Got)
}

func (e TooManyArgsError) Unwrap() error {
	return types.ErrSchema
}
