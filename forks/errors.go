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
	"fmt"
	"sort"
	"strings"
)

// KillAllError lists the forks that could not be killed, by id.
type KillAllError struct {
	Failed map[string]error
}

func (e *KillAllError) Error() string {
	ids := e.FailedIDs()
	messages := make([]string, 0, len(ids))
	for _, id := range ids {
		messages = append(messages, fmt.Sprintf("%s: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("couldn't kill %d fork(s): %s", len(ids), strings.Join(messages, "; "))
}

func (e *KillAllError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *KillAllError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, id := range e.FailedIDs() {
		errs = append(errs, e.Failed[id])
	}
	return errs
}
