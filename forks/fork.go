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
	"time"

	"code.vegaprotocol.io/anchor/network"
)

// Fork is a running node replaying a network from a fixed block.
type Fork struct {
	ID          string          `json:"id"`
	Network     network.Network `json:"network"`
	ChainID     uint64          `json:"chain_id"`
	BlockNumber uint64          `json:"block_number"`
	Port        int             `json:"port"`
	RPCURL      string          `json:"rpc_url"`
	PID         int             `json:"pid"`
	SessionID   string          `json:"session_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (f Fork) IsZero() bool {
	return f.ID == ""
}

// Env returns the variables exported to tools targeting the fork.
func (f Fork) Env() [][2]string {
	return [][2]string{
		{"FORK_RPC_URL", f.RPCURL},
		{"FORK_CHAIN_ID", fmt.Sprintf("%d", f.ChainID)},
		{"FORK_BLOCK_NUMBER", fmt.Sprintf("%d", f.BlockNumber)},
		{"FORK_ID", f.ID},
	}
}

func rpcURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}
