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

package node_test

import (
	"context"
	"testing"

	"code.vegaprotocol.io/anchor/client/node"
	"code.vegaprotocol.io/anchor/client/node/nodetest"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	t.Run("Getting the block number succeeds", testGettingBlockNumberSucceeds)
	t.Run("Reverting to a snapshot restores the node state", testRevertingToSnapshotRestoresNodeState)
	t.Run("Reverting to an earlier snapshot invalidates later handles", testRevertingToEarlierSnapshotInvalidatesLaterHandles)
	t.Run("Reverting with a forgotten handle reports false", testRevertingWithForgottenHandleReportsFalse)
	t.Run("Dumping then loading state round-trips the blob", testDumpingThenLoadingStateRoundTrips)
	t.Run("Error answered by the node is a rejection", testErrorAnsweredByNodeIsRejection)
	t.Run("Unreachable node is reported as such", testUnreachableNodeIsReported)
}

func newClient(t *testing.T, url string) *node.Client {
	t.Helper()
	c, err := node.Dial(context.Background(), logging.NewTestLogger(), url)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func testGettingBlockNumberSucceeds(t *testing.T) {
	fake := nodetest.New(t)
	fake.SetBlockNumber(6_123_456)
	c := newClient(t, fake.URL())

	number, err := c.BlockNumber(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(6_123_456), number)
	assert.Equal(t, fake.URL(), c.URL())
}

func testRevertingToSnapshotRestoresNodeState(t *testing.T) {
	ctx := context.Background()
	fake := nodetest.New(t)
	fake.SetBlockNumber(10)
	fake.SetState([]byte("before"))
	c := newClient(t, fake.URL())

	handle, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	fake.SetBlockNumber(12)
	fake.SetState([]byte("after"))

	reverted, err := c.Revert(ctx, handle)

	require.NoError(t, err)
	assert.True(t, reverted)
	assert.Equal(t, uint64(10), fake.BlockNumber())
	assert.Equal(t, []byte("before"), fake.State())
}

func testRevertingToEarlierSnapshotInvalidatesLaterHandles(t *testing.T) {
	ctx := context.Background()
	fake := nodetest.New(t)
	c := newClient(t, fake.URL())

	first, err := c.Snapshot(ctx)
	require.NoError(t, err)
	second, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	reverted, err := c.Revert(ctx, first)
	require.NoError(t, err)
	assert.True(t, reverted)

	reverted, err = c.Revert(ctx, second)
	require.NoError(t, err)
	assert.False(t, reverted)
}

func testRevertingWithForgottenHandleReportsFalse(t *testing.T) {
	ctx := context.Background()
	fake := nodetest.New(t)
	c := newClient(t, fake.URL())
	handle, err := c.Snapshot(ctx)
	require.NoError(t, err)

	fake.Restart()

	reverted, err := c.Revert(ctx, handle)
	require.NoError(t, err)
	assert.False(t, reverted)
}

func testDumpingThenLoadingStateRoundTrips(t *testing.T) {
	ctx := context.Background()
	source := nodetest.New(t)
	source.SetState([]byte{0x1f, 0x8b, 0x00, 0x42, 0xff})
	target := nodetest.New(t)

	state, err := newClient(t, source.URL()).DumpState(ctx)
	require.NoError(t, err)
	require.NoError(t, newClient(t, target.URL()).LoadState(ctx, state))

	assert.Equal(t, source.State(), target.State())
	assert.Equal(t, 1, target.LoadedStates())
}

func testErrorAnsweredByNodeIsRejection(t *testing.T) {
	fake := nodetest.New(t)
	fake.RejectRequests(true)
	c := newClient(t, fake.URL())

	_, err := c.BlockNumber(context.Background())

	require.ErrorIs(t, err, types.ErrNodeRejected)
	assert.Equal(t, types.KindRPC, types.KindOf(err))
}

func testUnreachableNodeIsReported(t *testing.T) {
	fake := nodetest.New(t)
	url := fake.URL()
	fake.Close()
	c := newClient(t, url)

	_, err := c.Snapshot(context.Background())

	require.ErrorIs(t, err, types.ErrNodeUnreachable)
	assert.NotErrorIs(t, err, types.ErrNodeRejected)
}
