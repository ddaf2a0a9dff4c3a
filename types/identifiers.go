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

package types

import (
	"fmt"
	"strings"
)

// ValidateIdentifier checks a fork or session id before it is used to build a
// file name.
func ValidateIdentifier(kind, id string) error {
	if len(strings.TrimSpace(id)) == 0 {
		return fmt.Errorf("%w: the %s id is required", ErrInvalidIdentifier, kind)
	}
	if strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: the %s id cannot start with a dot (\".\") character", ErrInvalidIdentifier, kind)
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("%w: the %s id cannot contain slash (\"/\", \"\\\") characters", ErrInvalidIdentifier, kind)
	}
	return nil
}
