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

package forks_test

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"code.vegaprotocol.io/anchor/client/node/nodetest"
	"code.vegaprotocol.io/anchor/config/encoding"
	"code.vegaprotocol.io/anchor/forks"
	"code.vegaprotocol.io/anchor/forks/mocks"
	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	vgtest "code.vegaprotocol.io/anchor/libs/test"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/network"
	"code.vegaprotocol.io/anchor/paths"
	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/types"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamBlock = uint64(6_000_000)

func TestForking(t *testing.T) {
	t.Run("Forking without block resolves the latest upstream block", testForkingWithoutBlockResolvesLatestUpstreamBlock)
	t.Run("Forking at a given block does not query the upstream", testForkingAtGivenBlockDoesNotQueryUpstream)
	t.Run("Forking with an unreachable upstream fails before spawning", testForkingWithUnreachableUpstreamFails)
	t.Run("Forking with an invalid session fails", testForkingWithInvalidSessionFails)
	t.Run("Forking on a port used by a live fork fails", testForkingOnPortUsedByLiveForkFails)
	t.Run("Forking on a port that cannot be bound fails", testForkingOnUnbindablePortFails)
	t.Run("Probing skips ports used by live forks", testProbingSkipsPortsUsedByLiveForks)
	t.Run("Probing gives up after the configured retries", testProbingGivesUpAfterRetries)
	t.Run("Failing spawn records nothing", testFailingSpawnRecordsNothing)
	t.Run("Node never answering is stopped and times out", testNodeNeverAnsweringIsStoppedAndTimesOut)
	t.Run("Node exiting early is reported as a spawn failure", testNodeExitingEarlyIsSpawnFailure)
	t.Run("Port becomes reusable after kill", testPortBecomesReusableAfterKill)
}

func TestKilling(t *testing.T) {
	t.Run("Killing an unknown fork fails without signalling", testKillingUnknownForkFailsWithoutSignalling)
	t.Run("Killing a fork forgets it and cleans up", testKillingForkForgetsItAndCleansUp)
	t.Run("Killing a fork whose node is already gone succeeds", testKillingForkWithStalePIDSucceeds)
	t.Run("Fork that cannot be stopped stays recorded", testForkThatCannotBeStoppedStaysRecorded)
	t.Run("Killing all forks is best effort", testKillingAllForksIsBestEffort)
	t.Run("Killing all forks of an empty registry succeeds", testKillingAllForksOfEmptyRegistrySucceeds)
}

type testManager struct {
	*forks.Manager
	ctrl     *gomock.Controller
	process  *mocks.MockProcessController
	ports    *mocks.MockPortProber
	paths    paths.Paths
	upstream *nodetest.Node
	cfg      forks.Config
}

func getTestManager(t *testing.T) *testManager {
	t.Helper()
	ctrl := gomock.NewController(t)
	process := mocks.NewMockProcessController(ctrl)
	ports := mocks.NewMockPortProber(ctrl)

	upstream := nodetest.New(t)
	upstream.SetBlockNumber(upstreamBlock)

	cfg := forks.NewDefaultConfig()
	cfg.ReadinessTimeout = encoding.Duration{Duration: 2 * time.Second}
	cfg.ReadinessPollInterval = encoding.Duration{Duration: 10 * time.Millisecond}
	cfg.StopGracePeriod = encoding.Duration{Duration: 100 * time.Millisecond}
	cfg.PortProbeRetries = 3
	cfg.Upstreams = map[string]string{
		network.Sepolia.Name(): upstream.URL(),
		network.Mainnet.Name(): upstream.URL(),
	}

	p := paths.New(t.TempDir())
	log := logging.NewTestLogger()

	return &testManager{
		Manager:  forks.NewManager(log, cfg, registry.NewDefaultConfig(), p, process, ports, forks.NodeDialer(log)),
		ctrl:     ctrl,
		process:  process,
		ports:    ports,
		paths:    p,
		upstream: upstream,
		cfg:      cfg,
	}
}

// reload returns a fresh manager reading what was persisted.
func (tm *testManager) reload(t *testing.T) *forks.Manager {
	t.Helper()
	log := logging.NewTestLogger()
	m := forks.NewManager(log, tm.cfg, registry.NewDefaultConfig(), tm.paths, tm.process, tm.ports, forks.NodeDialer(log))
	require.NoError(t, m.LoadRegistry())
	return m
}

func runningNode(pid int) forks.NodeProcess {
	return forks.NodeProcess{PID: pid, Exited: make(chan struct{})}
}

// fork creates a fork answered by a fake node listening on the probed port.
func (tm *testManager) fork(t *testing.T, pid int) (forks.Fork, *nodetest.Node) {
	t.Helper()
	local := nodetest.New(t)
	tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(local.Port(), nil)
	tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(runningNode(pid), nil)

	fork, err := tm.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})
	require.NoError(t, err)
	return fork, local
}

func testForkingWithoutBlockResolvesLatestUpstreamBlock(t *testing.T) {
	tm := getTestManager(t)
	local := nodetest.New(t)
	port := local.Port()

	var spec forks.NodeSpec
	tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(port, nil)
	tm.process.EXPECT().Start(gomock.Any()).Times(1).DoAndReturn(func(s forks.NodeSpec) (forks.NodeProcess, error) {
		spec = s
		return runningNode(4242), nil
	})

	fork, err := tm.Fork(context.Background(), forks.ForkRequest{
		Network:   network.Sepolia,
		SessionID: "session-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, fork.ID)
	assert.Equal(t, network.Sepolia, fork.Network)
	assert.Equal(t, uint64(11155111), fork.ChainID)
	assert.Equal(t, upstreamBlock, fork.BlockNumber)
	assert.Equal(t, port, fork.Port)
	assert.Equal(t, "http://127.0.0.1:"+strconv.Itoa(port), fork.RPCURL)
	assert.Equal(t, 4242, fork.PID)
	assert.Equal(t, "session-1", fork.SessionID)
	assert.False(t, fork.CreatedAt.IsZero())

	assert.Equal(t, "anvil", spec.Binary)
	assert.Equal(t, tm.paths.NodeLog(fork.ID), spec.LogFile)
	assert.Equal(t, []string{
		"--fork-url", tm.upstream.URL(),
		"--fork-block-number", "6000000",
		"--port", strconv.Itoa(port),
		"--host", "127.0.0.1",
	}, spec.Args)

	// The upstream moving on does not change the fork.
	tm.upstream.SetBlockNumber(upstreamBlock + 100)
	persisted, ok := tm.reload(t).Get(fork.ID)
	require.True(t, ok)
	assert.Equal(t, upstreamBlock, persisted.BlockNumber)
	assert.Equal(t, fork.RPCURL, persisted.RPCURL)
	vgtest.AssertFileAccess(t, tm.paths.ForkRegistry())
}

func testForkingAtGivenBlockDoesNotQueryUpstream(t *testing.T) {
	tm := getTestManager(t)
	tm.upstream.RejectRequests(true)
	local := nodetest.New(t)
	block := uint64(4_200_000)

	tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(local.Port(), nil)
	tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(runningNode(4242), nil)

	fork, err := tm.Fork(context.Background(), forks.ForkRequest{
		Network: network.Sepolia,
		Block:   &block,
	})

	require.NoError(t, err)
	assert.Equal(t, block, fork.BlockNumber)
}

func testForkingWithUnreachableUpstreamFails(t *testing.T) {
	tm := getTestManager(t)
	tm.upstream.Close()

	fork, err := tm.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})

	require.ErrorIs(t, err, types.ErrUpstreamUnreachable)
	assert.Equal(t, types.KindResource, types.KindOf(err))
	assert.True(t, fork.IsZero())
	assert.Empty(t, tm.All())
}

func testForkingWithInvalidSessionFails(t *testing.T) {
	tm := getTestManager(t)

	_, err := tm.Fork(context.Background(), forks.ForkRequest{
		Network:   network.Sepolia,
		SessionID: "../escape",
	})

	require.ErrorIs(t, err, types.ErrInvalidIdentifier)
	assert.Equal(t, types.KindSchema, types.KindOf(err))
}

func testForkingOnPortUsedByLiveForkFails(t *testing.T) {
	tm := getTestManager(t)
	first, _ := tm.fork(t, 4242)

	port := first.Port
	_, err := tm.Fork(context.Background(), forks.ForkRequest{
		Network: network.Sepolia,
		Port:    &port,
	})

	require.ErrorIs(t, err, types.ErrPortUnavailable)
	assert.Len(t, tm.All(), 1)
}

func testForkingOnUnbindablePortFails(t *testing.T) {
	tm := getTestManager(t)
	port := 8545
	tm.ports.EXPECT().IsBindable(forks.DefaultHost, port).Times(1).Return(false)

	_, err := tm.Fork(context.Background(), forks.ForkRequest{
		Network: network.Sepolia,
		Port:    &port,
	})

	require.ErrorIs(t, err, types.ErrPortUnavailable)
}

func testProbingSkipsPortsUsedByLiveForks(t *testing.T) {
	tm := getTestManager(t)
	first, _ := tm.fork(t, 4242)
	second := nodetest.New(t)

	gomock.InOrder(
		tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(first.Port, nil),
		tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(second.Port(), nil),
	)
	tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(runningNode(4343), nil)

	fork, err := tm.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})

	require.NoError(t, err)
	assert.Equal(t, second.Port(), fork.Port)
	assert.NotEqual(t, first.ID, fork.ID)
	assert.Len(t, tm.All(), 2)
}

func testProbingGivesUpAfterRetries(t *testing.T) {
	tm := getTestManager(t)
	tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(int(tm.cfg.PortProbeRetries)+1).Return(0, errors.New("no port left"))

	_, err := tm.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})

	require.ErrorIs(t, err, types.ErrPortUnavailable)
}

func testFailingSpawnRecordsNothing(t *testing.T) {
	tm := getTestManager(t)
	tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(8545, nil)
	tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(forks.NodeProcess{}, exec.ErrNotFound)

	_, err := tm.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})

	require.ErrorIs(t, err, types.ErrSpawnFailed)
	require.ErrorIs(t, err, exec.ErrNotFound)
	assert.Empty(t, tm.All())
	vgtest.AssertNoFile(t, tm.paths.ForkRegistry())
}

func testNodeNeverAnsweringIsStoppedAndTimesOut(t *testing.T) {
	tm := getTestManager(t)
	tm.cfg.ReadinessTimeout = encoding.Duration{Duration: 200 * time.Millisecond}
	m := tm.reload(t)

	port, err := forks.OSPortProber{}.Ephemeral(forks.DefaultHost)
	require.NoError(t, err)

	gomock.InOrder(
		tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(port, nil),
		tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(runningNode(4242), nil),
		tm.process.EXPECT().Stop(gomock.Any(), 4242, tm.cfg.StopGracePeriod.Get()).Times(1).Return(nil),
	)

	_, err = m.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})

	require.ErrorIs(t, err, types.ErrReadinessTimeout)
	assert.Empty(t, m.All())
}

func testNodeExitingEarlyIsSpawnFailure(t *testing.T) {
	tm := getTestManager(t)
	port, err := forks.OSPortProber{}.Ephemeral(forks.DefaultHost)
	require.NoError(t, err)

	exited := make(chan struct{})
	close(exited)

	gomock.InOrder(
		tm.ports.EXPECT().Ephemeral(forks.DefaultHost).Times(1).Return(port, nil),
		tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(forks.NodeProcess{PID: 4242, Exited: exited}, nil),
		tm.process.EXPECT().Stop(gomock.Any(), 4242, gomock.Any()).Times(1).Return(nil),
	)

	_, err = tm.Fork(context.Background(), forks.ForkRequest{Network: network.Sepolia})

	require.ErrorIs(t, err, types.ErrSpawnFailed)
	assert.NotErrorIs(t, err, types.ErrReadinessTimeout)
}

func testPortBecomesReusableAfterKill(t *testing.T) {
	tm := getTestManager(t)
	first, _ := tm.fork(t, 4242)
	tm.process.EXPECT().Stop(gomock.Any(), 4242, gomock.Any()).Times(1).Return(nil)
	require.NoError(t, tm.Kill(context.Background(), first.ID))

	port := first.Port
	tm.ports.EXPECT().IsBindable(forks.DefaultHost, port).Times(1).Return(true)
	tm.process.EXPECT().Start(gomock.Any()).Times(1).Return(runningNode(4343), nil)

	fork, err := tm.Fork(context.Background(), forks.ForkRequest{
		Network: network.Sepolia,
		Port:    &port,
	})

	require.NoError(t, err)
	assert.Equal(t, port, fork.Port)
}

func testKillingUnknownForkFailsWithoutSignalling(t *testing.T) {
	tm := getTestManager(t)
	tm.process.EXPECT().Stop(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := tm.Kill(context.Background(), "fork-unknown")

	require.ErrorIs(t, err, types.ErrForkNotFound)
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
}

func testKillingForkForgetsItAndCleansUp(t *testing.T) {
	ctx := context.Background()
	tm := getTestManager(t)
	fork, _ := tm.fork(t, 4242)
	require.NoError(t, vgfs.EnsureDir(tm.paths.SnapshotsHome()))
	require.NoError(t, vgfs.WriteFile(tm.paths.SnapshotRegistry(fork.ID), []byte(`{}`)))
	require.NoError(t, vgfs.WriteFile(tm.paths.NodeLog(fork.ID), []byte("node output")))

	tm.process.EXPECT().Stop(gomock.Any(), 4242, tm.cfg.StopGracePeriod.Get()).Times(1).Return(nil)

	require.NoError(t, tm.Kill(ctx, fork.ID))

	_, ok := tm.Get(fork.ID)
	assert.False(t, ok)
	_, ok = tm.reload(t).Get(fork.ID)
	assert.False(t, ok)
	vgtest.AssertNoFile(t, tm.paths.SnapshotRegistry(fork.ID))
	vgtest.AssertNoFile(t, tm.paths.NodeLog(fork.ID))

	err := tm.Kill(ctx, fork.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func testKillingForkWithStalePIDSucceeds(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skipf("true is not available: %v", err)
	}
	ctx := context.Background()
	p := paths.New(t.TempDir())
	log := logging.NewTestLogger()
	process := forks.NewOSProcessController(log)

	// A node that already exited leaves a stale PID behind.
	proc, err := process.Start(forks.NodeSpec{Binary: "true"})
	require.NoError(t, err)
	<-proc.Exited

	store := registry.NewStore[forks.Fork](log, registry.NewDefaultConfig(), p.ForkRegistry())
	_, err = store.Update(ctx, func(c *registry.Collection[forks.Fork]) error {
		return c.Append("fork-stale", forks.Fork{ID: "fork-stale", Network: network.Base, PID: proc.PID, Port: 8545})
	})
	require.NoError(t, err)

	m := forks.NewManager(log, forks.NewDefaultConfig(), registry.NewDefaultConfig(), p, process, forks.OSPortProber{}, forks.NodeDialer(log))

	require.NoError(t, m.Kill(ctx, "fork-stale"))

	require.NoError(t, m.LoadRegistry())
	_, ok := m.Get("fork-stale")
	assert.False(t, ok)
}

func testForkThatCannotBeStoppedStaysRecorded(t *testing.T) {
	tm := getTestManager(t)
	fork, _ := tm.fork(t, 4242)
	tm.process.EXPECT().Stop(gomock.Any(), 4242, gomock.Any()).Times(1).Return(errors.New("operation not permitted"))

	err := tm.Kill(context.Background(), fork.ID)

	require.ErrorIs(t, err, types.ErrStopFailed)
	_, ok := tm.reload(t).Get(fork.ID)
	assert.True(t, ok)
}

func testKillingAllForksIsBestEffort(t *testing.T) {
	tm := getTestManager(t)
	first, _ := tm.fork(t, 1001)
	second, _ := tm.fork(t, 1002)
	third, _ := tm.fork(t, 1003)
	stopErr := errors.New("operation not permitted")

	tm.process.EXPECT().Stop(gomock.Any(), 1001, gomock.Any()).Times(1).Return(nil)
	tm.process.EXPECT().Stop(gomock.Any(), 1002, gomock.Any()).Times(1).Return(stopErr)
	tm.process.EXPECT().Stop(gomock.Any(), 1003, gomock.Any()).Times(1).Return(nil)

	killed, err := tm.KillAll(context.Background())

	var killAllErr *forks.KillAllError
	require.ErrorAs(t, err, &killAllErr)
	assert.Equal(t, []string{second.ID}, killAllErr.FailedIDs())
	require.ErrorIs(t, err, stopErr)
	assert.Equal(t, []string{first.ID, third.ID}, killed)

	remaining := tm.reload(t).All()
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)
}

func testKillingAllForksOfEmptyRegistrySucceeds(t *testing.T) {
	tm := getTestManager(t)

	killed, err := tm.KillAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, killed)
}
