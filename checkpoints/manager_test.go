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

package checkpoints_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.vegaprotocol.io/anchor/checkpoints"
	"code.vegaprotocol.io/anchor/client/node"
	"code.vegaprotocol.io/anchor/client/node/nodetest"
	"code.vegaprotocol.io/anchor/config/encoding"
	"code.vegaprotocol.io/anchor/forks"
	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	vgtest "code.vegaprotocol.io/anchor/libs/test"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/network"
	"code.vegaprotocol.io/anchor/paths"
	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/types"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "session-1"

func TestSavingCheckpoints(t *testing.T) {
	t.Run("Saving writes the state file and records its size", testSavingWritesStateFileAndRecordsSize)
	t.Run("Saving on an unreachable node leaves nothing behind", testSavingOnUnreachableNodeLeavesNothing)
	t.Run("Saving removes the state file when it cannot be recorded", testSavingRemovesStateFileWhenNotRecorded)
	t.Run("Saving without fork fails", testSavingWithoutForkFails)
	t.Run("Session is required", testSessionIsRequired)
	t.Run("Listing spans the forks of the session", testListingSpansForksOfSession)
}

func TestRestoringCheckpoints(t *testing.T) {
	t.Run("Restoring into a fresh fork reproduces the saved state", testRestoringIntoFreshForkReproducesSavedState)
	t.Run("Restoring an unknown checkpoint fails", testRestoringUnknownCheckpointFails)
	t.Run("Restoring into a fork of another network fails", testRestoringIntoForkOfAnotherNetworkFails)
	t.Run("Restoring a truncated state file is a corruption", testRestoringTruncatedStateFileIsCorruption)
	t.Run("Restoring a missing state file is a corruption", testRestoringMissingStateFileIsCorruption)
}

type testFork struct {
	fork forks.Fork
	node *nodetest.Node
}

func newTestFork(t *testing.T, id string, n network.Network) testFork {
	t.Helper()
	fake := nodetest.New(t)
	fake.SetBlockNumber(18_000_000)
	return testFork{
		fork: forks.Fork{
			ID:          id,
			Network:     n,
			ChainID:     n.ChainID(),
			BlockNumber: 18_000_000,
			RPCURL:      fake.URL(),
			PID:         4242,
		},
		node: fake,
	}
}

func newManager(t *testing.T, p paths.Paths, registryCfg registry.Config, fork forks.Fork) *checkpoints.Manager {
	t.Helper()
	log := logging.NewTestLogger()

	var n checkpoints.Node
	if !fork.IsZero() {
		client, err := node.Dial(context.Background(), log, fork.RPCURL)
		require.NoError(t, err)
		t.Cleanup(client.Close)
		n = client
	}

	m, err := checkpoints.NewManager(log, checkpoints.NewDefaultConfig(), registryCfg, p, sessionID, fork, n)
	require.NoError(t, err)
	require.NoError(t, m.LoadRegistry())
	return m
}

func stateFiles(t *testing.T, p paths.Paths) []string {
	t.Helper()
	entries, err := os.ReadDir(p.CheckpointDataHome())
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func testSavingWritesStateFileAndRecordsSize(t *testing.T) {
	p := paths.New(t.TempDir())
	f := newTestFork(t, "fork-aaaa1111", network.Mainnet)
	state := bytes.Repeat([]byte{0x1f, 0x8b, 0x08}, 1024)
	f.node.SetState(state)
	m := newManager(t, p, registry.NewDefaultConfig(), f.fork)

	cp, err := m.Save(context.Background(), "after deploy")

	require.NoError(t, err)
	assert.NotEmpty(t, cp.ID)
	assert.Equal(t, f.fork.ID, cp.ForkID)
	assert.Equal(t, sessionID, cp.SessionID)
	assert.Equal(t, network.Mainnet, cp.Network)
	assert.Equal(t, uint64(18_000_000), cp.BlockNumber)
	assert.Equal(t, int64(len(state)), cp.SizeBytes)
	assert.Equal(t, "after deploy", cp.Description)

	statePath := filepath.Join(p.CheckpointDataHome(), cp.StateFile)
	vgtest.AssertFileAccess(t, statePath)
	written, err := vgfs.ReadFile(statePath)
	require.NoError(t, err)
	assert.Equal(t, state, written)

	listed, err := newManager(t, p, registry.NewDefaultConfig(), forks.Fork{}).List()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, cp.ID, listed[0].ID)
	assert.Equal(t, cp.SizeBytes, listed[0].SizeBytes)
}

func testSavingOnUnreachableNodeLeavesNothing(t *testing.T) {
	p := paths.New(t.TempDir())
	f := newTestFork(t, "fork-aaaa1111", network.Mainnet)
	m := newManager(t, p, registry.NewDefaultConfig(), f.fork)
	f.node.Close()

	_, err := m.Save(context.Background(), "")

	require.ErrorIs(t, err, types.ErrNodeUnreachable)
	assert.Empty(t, stateFiles(t, p))
	vgtest.AssertNoFile(t, p.CheckpointRegistry(sessionID))
}

func testSavingRemovesStateFileWhenNotRecorded(t *testing.T) {
	p := paths.New(t.TempDir())
	f := newTestFork(t, "fork-aaaa1111", network.Mainnet)
	f.node.SetState([]byte("state"))

	registryCfg := registry.NewDefaultConfig()
	registryCfg.LockTimeout = encoding.Duration{Duration: 100 * time.Millisecond}
	m := newManager(t, p, registryCfg, f.fork)

	// Another process holds the registry.
	require.NoError(t, vgfs.EnsureDir(p.CheckpointsHome()))
	held := flock.New(p.CheckpointRegistry(sessionID) + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	_, err = m.Save(context.Background(), "")

	require.ErrorIs(t, err, types.ErrRegistryLocked)
	assert.Empty(t, stateFiles(t, p))
}

func testSavingWithoutForkFails(t *testing.T) {
	m := newManager(t, paths.New(t.TempDir()), registry.NewDefaultConfig(), forks.Fork{})

	_, err := m.Save(context.Background(), "")

	require.ErrorIs(t, err, types.ErrForkIsRequired)
}

func testSessionIsRequired(t *testing.T) {
	p := paths.New(t.TempDir())
	log := logging.NewTestLogger()

	_, err := checkpoints.NewManager(log, checkpoints.NewDefaultConfig(), registry.NewDefaultConfig(), p, "", forks.Fork{}, nil)
	require.ErrorIs(t, err, types.ErrSessionIsRequired)

	_, err = checkpoints.NewManager(log, checkpoints.NewDefaultConfig(), registry.NewDefaultConfig(), p, "a/b", forks.Fork{}, nil)
	require.ErrorIs(t, err, types.ErrInvalidIdentifier)
}

func testListingSpansForksOfSession(t *testing.T) {
	ctx := context.Background()
	p := paths.New(t.TempDir())
	first := newTestFork(t, "fork-aaaa1111", network.Base)
	first.node.SetState([]byte("first"))
	second := newTestFork(t, "fork-bbbb2222", network.Base)
	second.node.SetState([]byte("second"))

	cp1, err := newManager(t, p, registry.NewDefaultConfig(), first.fork).Save(ctx, "")
	require.NoError(t, err)
	// The first fork going away does not affect its checkpoints.
	first.node.Close()
	cp2, err := newManager(t, p, registry.NewDefaultConfig(), second.fork).Save(ctx, "")
	require.NoError(t, err)

	listed, err := newManager(t, p, registry.NewDefaultConfig(), forks.Fork{}).List()

	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, cp1.ID, listed[0].ID)
	assert.Equal(t, first.fork.ID, listed[0].ForkID)
	assert.Equal(t, cp2.ID, listed[1].ID)
	assert.Equal(t, second.fork.ID, listed[1].ForkID)
}

func testRestoringIntoFreshForkReproducesSavedState(t *testing.T) {
	ctx := context.Background()
	p := paths.New(t.TempDir())
	source := newTestFork(t, "fork-aaaa1111", network.Sepolia)
	source.node.SetState([]byte{0x00, 0x01, 0xfe, 0xff, 0x7b, 0x22, 0x61, 0x22})
	cp, err := newManager(t, p, registry.NewDefaultConfig(), source.fork).Save(ctx, "")
	require.NoError(t, err)
	saved, err := vgfs.ReadFile(filepath.Join(p.CheckpointDataHome(), cp.StateFile))
	require.NoError(t, err)

	target := newTestFork(t, "fork-bbbb2222", network.Sepolia)
	restored, err := newManager(t, p, registry.NewDefaultConfig(), target.fork).Restore(ctx, cp.ID)

	require.NoError(t, err)
	assert.Equal(t, cp.ID, restored.ID)
	assert.Equal(t, saved, target.node.State())
	assert.Equal(t, 1, target.node.LoadedStates())
}

func testRestoringUnknownCheckpointFails(t *testing.T) {
	f := newTestFork(t, "fork-aaaa1111", network.Sepolia)
	m := newManager(t, paths.New(t.TempDir()), registry.NewDefaultConfig(), f.fork)

	_, err := m.Restore(context.Background(), "cp-unknown")

	require.ErrorIs(t, err, types.ErrCheckpointNotFound)
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
}

func testRestoringIntoForkOfAnotherNetworkFails(t *testing.T) {
	ctx := context.Background()
	p := paths.New(t.TempDir())
	source := newTestFork(t, "fork-aaaa1111", network.Sepolia)
	source.node.SetState([]byte("state"))
	cp, err := newManager(t, p, registry.NewDefaultConfig(), source.fork).Save(ctx, "")
	require.NoError(t, err)

	target := newTestFork(t, "fork-bbbb2222", network.Arbitrum)
	_, err = newManager(t, p, registry.NewDefaultConfig(), target.fork).Restore(ctx, cp.ID)

	require.ErrorIs(t, err, types.ErrNetworkMismatch)
	assert.Equal(t, types.KindSchema, types.KindOf(err))
	assert.Equal(t, 0, target.node.LoadedStates())
}

func testRestoringTruncatedStateFileIsCorruption(t *testing.T) {
	ctx := context.Background()
	p := paths.New(t.TempDir())
	f := newTestFork(t, "fork-aaaa1111", network.Sepolia)
	f.node.SetState([]byte("a state that will be cut short"))
	cp, err := newManager(t, p, registry.NewDefaultConfig(), f.fork).Save(ctx, "")
	require.NoError(t, err)

	statePath := filepath.Join(p.CheckpointDataHome(), cp.StateFile)
	require.NoError(t, os.Truncate(statePath, 5))

	m := newManager(t, p, registry.NewDefaultConfig(), f.fork)
	_, err = m.Restore(ctx, cp.ID)
	require.ErrorIs(t, err, types.ErrCorruption)
	assert.Equal(t, types.KindCorruption, types.KindOf(err))
	assert.Equal(t, 0, f.node.LoadedStates())

	_, err = m.List()
	require.ErrorIs(t, err, types.ErrCorruption)
}

func testRestoringMissingStateFileIsCorruption(t *testing.T) {
	ctx := context.Background()
	p := paths.New(t.TempDir())
	f := newTestFork(t, "fork-aaaa1111", network.Sepolia)
	f.node.SetState([]byte("state"))
	cp, err := newManager(t, p, registry.NewDefaultConfig(), f.fork).Save(ctx, "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(p.CheckpointDataHome(), cp.StateFile)))

	_, err = newManager(t, p, registry.NewDefaultConfig(), f.fork).Restore(ctx, cp.ID)
	require.ErrorIs(t, err, types.ErrCorruption)
	assert.NotErrorIs(t, err, types.ErrNotFound)
}
