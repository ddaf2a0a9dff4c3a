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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	vgid "code.vegaprotocol.io/anchor/libs/id"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/network"
	"code.vegaprotocol.io/anchor/paths"
	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/types"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

const (
	namedLogger  = "forks"
	idPrefix     = "fork"
	idGeneration = 16
)

// ForkRequest holds the parameters of a new fork. Block and Port are
// optional.
type ForkRequest struct {
	Network   network.Network
	Block     *uint64
	Port      *int
	SessionID string
}

// Manager owns the fork registry and the node processes behind it.
type Manager struct {
	log         *logging.Logger
	cfg         Config
	registryCfg registry.Config
	paths       paths.Paths

	store    *registry.Store[Fork]
	registry *registry.Collection[Fork]

	process ProcessController
	ports   PortProber
	dial    DialFunc

	newID vgid.Generator
	now   func() time.Time
}

func NewManager(
	log *logging.Logger,
	cfg Config,
	registryCfg registry.Config,
	p paths.Paths,
	process ProcessController,
	ports PortProber,
	dial DialFunc,
) *Manager {
	log = log.Named(namedLogger)
	return &Manager{
		log:         log,
		cfg:         cfg,
		registryCfg: registryCfg,
		paths:       p,
		store:       registry.NewStore[Fork](log, registryCfg, p.ForkRegistry()),
		registry:    registry.NewCollection[Fork](),
		process:     process,
		ports:       ports,
		dial:        dial,
		newID:       vgid.Prefixed(idPrefix, vgid.Short()),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LoadRegistry reads the fork registry. On failure the manager keeps an
// empty registry and the error is returned for the caller to report.
func (m *Manager) LoadRegistry() error {
	c, err := m.store.Load()
	if err != nil {
		m.registry = registry.NewCollection[Fork]()
		return err
	}
	m.registry = c
	return nil
}

// All returns the forks in creation order.
func (m *Manager) All() []Fork {
	return m.registry.Values()
}

func (m *Manager) Get(id string) (Fork, bool) {
	return m.registry.Get(id)
}

// Fork starts a node forking req.Network and records it. Every failure
// after the node is started stops it before returning.
func (m *Manager) Fork(ctx context.Context, req ForkRequest) (Fork, error) {
	if !req.Network.IsValid() {
		return Fork{}, fmt.Errorf("%d: %w", req.Network, types.ErrUnknownNetwork)
	}
	if req.SessionID != "" {
		if err := types.ValidateIdentifier("session", req.SessionID); err != nil {
			return Fork{}, err
		}
	}

	if err := m.LoadRegistry(); err != nil {
		m.log.Warn("couldn't load the fork registry, assuming it is empty", logging.Error(err))
	}

	upstream := m.upstreamURL(req.Network)

	block, err := m.resolveBlock(ctx, req, upstream)
	if err != nil {
		return Fork{}, err
	}

	port, err := m.allocatePort(req.Port)
	if err != nil {
		return Fork{}, err
	}

	id, ok := vgid.Unique(m.newID, m.registry.Has, idGeneration)
	if !ok {
		return Fork{}, fmt.Errorf("couldn't generate a fork id: %w", types.ErrDuplicateID)
	}

	if err := vgfs.EnsureDir(m.paths.LogsHome()); err != nil {
		return Fork{}, fmt.Errorf("couldn't create the logs folder: %w: %w", types.ErrIO, err)
	}

	log := m.log.With(logging.ForkID(id))

	proc, err := m.process.Start(NodeSpec{
		Binary:  m.cfg.NodeBinary,
		Args:    nodeArgs(upstream, block, m.cfg.Host, port, m.cfg.NodeArgs),
		LogFile: m.paths.NodeLog(id),
	})
	if err != nil {
		return Fork{}, fmt.Errorf("%w: %w", types.ErrSpawnFailed, err)
	}

	log.Info("node started, waiting for it to be ready",
		logging.Int("pid", proc.PID),
		logging.Int("port", port),
		logging.Uint64("block-number", block),
	)

	fork := Fork{
		ID:          id,
		Network:     req.Network,
		ChainID:     req.Network.ChainID(),
		BlockNumber: block,
		Port:        port,
		RPCURL:      rpcURL(m.cfg.Host, port),
		PID:         proc.PID,
		SessionID:   req.SessionID,
		CreatedAt:   m.now(),
	}

	if err := m.waitUntilReady(ctx, fork.RPCURL, proc); err != nil {
		m.release(log, fork)
		return Fork{}, fmt.Errorf("%w (node output in %s)", err, m.paths.NodeLog(id))
	}

	updated, err := m.store.Update(ctx, func(c *registry.Collection[Fork]) error {
		if isPortLive(c, port) {
			return fmt.Errorf("port %d was taken by another fork: %w", port, types.ErrPortUnavailable)
		}
		return c.Append(id, fork)
	})
	if err != nil {
		m.release(log, fork)
		return Fork{}, err
	}
	m.registry = updated

	log.Info("fork is ready", logging.String("rpc-url", fork.RPCURL))
	return fork, nil
}

// Kill stops the fork's node and forgets the fork. A node that is already
// gone is not an error.
func (m *Manager) Kill(ctx context.Context, id string) error {
	if err := m.LoadRegistry(); err != nil {
		m.log.Warn("couldn't load the fork registry, assuming it is empty", logging.Error(err))
	}

	fork, ok := m.registry.Get(id)
	if !ok {
		return fmt.Errorf("%q: %w", id, types.ErrForkNotFound)
	}

	if err := m.stop(ctx, fork); err != nil {
		return err
	}

	updated, err := m.store.Update(ctx, func(c *registry.Collection[Fork]) error {
		c.Delete(id)
		return nil
	})
	if err != nil {
		return err
	}
	m.registry = updated

	m.cleanUp(ctx, id)
	return nil
}

// KillAll stops every fork concurrently. Forks that could not be stopped
// stay in the registry and are reported in a *KillAllError. The ids of the
// killed forks are returned in creation order.
func (m *Manager) KillAll(ctx context.Context) ([]string, error) {
	if err := m.LoadRegistry(); err != nil {
		m.log.Warn("couldn't load the fork registry, assuming it is empty", logging.Error(err))
	}

	forks := m.registry.Values()
	if len(forks) == 0 {
		return []string{}, nil
	}

	var (
		mu     sync.Mutex
		failed = map[string]error{}
		eg     errgroup.Group
	)
	for _, fork := range forks {
		eg.Go(func() error {
			if err := m.stop(ctx, fork); err != nil {
				mu.Lock()
				failed[fork.ID] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	killed := make([]string, 0, len(forks))
	for _, fork := range forks {
		if _, ok := failed[fork.ID]; !ok {
			killed = append(killed, fork.ID)
		}
	}

	if len(killed) > 0 {
		updated, err := m.store.Update(ctx, func(c *registry.Collection[Fork]) error {
			for _, id := range killed {
				c.Delete(id)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		m.registry = updated

		for _, id := range killed {
			m.cleanUp(ctx, id)
		}
	}

	if len(failed) > 0 {
		return killed, &KillAllError{Failed: failed}
	}
	return killed, nil
}

func (m *Manager) upstreamURL(n network.Network) string {
	return n.UpstreamURL(m.cfg.Upstreams[n.Name()])
}

// resolveBlock fixes the block the fork starts from. The latest block is
// asked to the upstream once, here, and never re-resolved.
func (m *Manager) resolveBlock(ctx context.Context, req ForkRequest, upstream string) (uint64, error) {
	if req.Block != nil {
		return *req.Block, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.UpstreamTimeout.Get())
	defer cancel()

	client, err := m.dial(ctx, upstream)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", req.Network, types.ErrUpstreamUnreachable, err)
	}
	defer client.Close()

	block, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("couldn't resolve the latest block of %s: %w: %w", req.Network, types.ErrUpstreamUnreachable, err)
	}

	m.log.Debug("resolved latest upstream block",
		logging.String("network", req.Network.Name()),
		logging.Uint64("block-number", block),
	)
	return block, nil
}

func (m *Manager) allocatePort(requested *int) (int, error) {
	host := m.cfg.Host

	if requested != nil {
		port := *requested
		if isPortLive(m.registry, port) {
			return 0, fmt.Errorf("port %d is used by another fork: %w", port, types.ErrPortUnavailable)
		}
		if !m.ports.IsBindable(host, port) {
			return 0, fmt.Errorf("port %d cannot be bound on %s: %w", port, host, types.ErrPortUnavailable)
		}
		return port, nil
	}

	var port int
	probe := func() error {
		candidate, err := m.ports.Ephemeral(host)
		if err != nil {
			return err
		}
		if isPortLive(m.registry, candidate) {
			return fmt.Errorf("port %d is used by another fork", candidate)
		}
		port = candidate
		return nil
	}

	notify := func(err error, _ time.Duration) {
		m.log.Debug("port probe failed, retrying", logging.Error(err))
	}

	if err := backoff.RetryNotify(probe, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, m.cfg.PortProbeRetries), notify); err != nil {
		return 0, fmt.Errorf("no free port found on %s: %w: %w", host, types.ErrPortUnavailable, err)
	}
	return port, nil
}

func (m *Manager) waitUntilReady(ctx context.Context, url string, proc NodeProcess) error {
	timeout := m.cfg.ReadinessTimeout.Get()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := m.dial(ctx, url)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", url, types.ErrReadinessTimeout, err)
	}
	defer client.Close()

	probe := func() error {
		select {
		case <-proc.Exited:
			return backoff.Permanent(fmt.Errorf("node exited before answering on %s: %w", url, types.ErrSpawnFailed))
		default:
		}
		_, err := client.BlockNumber(ctx)
		return err
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(m.cfg.ReadinessPollInterval.Get()), ctx)
	if err := backoff.Retry(probe, policy); err != nil {
		if errors.Is(err, types.ErrSpawnFailed) {
			return err
		}
		return fmt.Errorf("%s did not answer within %s: %w", url, timeout, types.ErrReadinessTimeout)
	}
	return nil
}

func (m *Manager) stop(ctx context.Context, fork Fork) error {
	m.log.Debug("stopping fork", logging.ForkID(fork.ID), logging.Int("pid", fork.PID))
	if err := m.process.Stop(ctx, fork.PID, m.cfg.StopGracePeriod.Get()); err != nil {
		return fmt.Errorf("fork %s (pid %d): %w: %w", fork.ID, fork.PID, types.ErrStopFailed, err)
	}
	return nil
}

// release stops a node that will not be recorded. Its log is kept.
func (m *Manager) release(log *logging.Logger, fork Fork) {
	if err := m.stop(context.Background(), fork); err != nil {
		log.Error("couldn't stop the node of a failed fork", logging.Int("pid", fork.PID), logging.Error(err))
	}
}

// cleanUp removes what belonged to a killed fork: its snapshot registry,
// whose handles died with the node, and its node log.
func (m *Manager) cleanUp(ctx context.Context, id string) {
	log := m.log.With(logging.ForkID(id))

	snapshots := registry.NewStore[json.RawMessage](m.log, m.registryCfg, m.paths.SnapshotRegistry(id))
	if err := snapshots.Remove(ctx); err != nil {
		log.Warn("couldn't remove the snapshot registry of the fork", logging.Error(err))
	}

	if err := os.Remove(m.paths.NodeLog(id)); err != nil && !os.IsNotExist(err) {
		log.Warn("couldn't remove the node log", logging.Error(err))
	}
}

func isPortLive(c *registry.Collection[Fork], port int) bool {
	for _, fork := range c.Values() {
		if fork.Port == port {
			return true
		}
	}
	return false
}
