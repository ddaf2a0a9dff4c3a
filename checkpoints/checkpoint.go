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

package checkpoints

import (
	"time"

	"code.vegaprotocol.io/anchor/network"
)

// Checkpoint is a full state dump stored on disk. It belongs to a session
// and outlives the fork it was taken from.
type Checkpoint struct {
	ID          string          `json:"id"`
	ForkID      string          `json:"fork_id"`
	SessionID   string          `json:"session_id"`
	Network     network.Network `json:"network"`
	BlockNumber uint64          `json:"block_number"`
	SizeBytes   int64           `json:"size_bytes"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StateFile   string          `json:"state_file"`
}
