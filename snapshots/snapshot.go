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

package snapshots

import (
	"time"
)

// Snapshot is a capture of a fork's state held by its node. It can only be
// reverted to while that node runs.
type Snapshot struct {
	ID           string    `json:"id"`
	ForkID       string    `json:"fork_id"`
	BlockNumber  uint64    `json:"block_number"`
	SessionID    string    `json:"session_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	RevertHandle string    `json:"revert_handle"`
}
