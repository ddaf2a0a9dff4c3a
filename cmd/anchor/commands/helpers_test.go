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

package cmd_test

import (
	"context"
	"io"
	"testing"
	"time"

	cmd "code.vegaprotocol.io/anchor/cmd/anchor/commands"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/client/node/nodetest"
	"code.vegaprotocol.io/anchor/forks"
	vgrand "code.vegaprotocol.io/anchor/libs/rand"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/network"
	"code.vegaprotocol.io/anchor/registry"

	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T, home string) *cmd.Runtime {
	t.Helper()

	rt, err := cmd.NewRuntime(&cmd.RootFlags{
		Home:     home,
		Output:   flags.JSONOutput,
		LogLevel: "error",
		Zone:     "local",
	}, io.Discard)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	return rt
}

// recordFork registers a fork backed by the fake node, as if it had been
// started by the fork command.
func recordFork(t *testing.T, rt *cmd.Runtime, n *nodetest.Node) forks.Fork {
	t.Helper()
	return recordForkOn(t, rt, n, network.Sepolia)
}

func recordForkOn(t *testing.T, rt *cmd.Runtime, n *nodetest.Node, net network.Network) forks.Fork {
	t.Helper()

	fork := forks.Fork{
		ID:          "fork-" + vgrand.RandomStr(8),
		Network:     net,
		ChainID:     net.ChainID(),
		BlockNumber: n.BlockNumber(),
		Port:        n.Port(),
		RPCURL:      n.URL(),
		PID:         4242,
		CreatedAt:   time.Now().UTC(),
	}

	store := registry.NewStore[forks.Fork](logging.NewTestLogger(), registry.NewDefaultConfig(), rt.Paths.ForkRegistry())
	_, err := store.Update(context.Background(), func(c *registry.Collection[forks.Fork]) error {
		return c.Append(fork.ID, fork)
	})
	require.NoError(t, err)

	return fork
}
