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
	"context"
	"errors"
	"fmt"
	"time"

	"code.vegaprotocol.io/anchor/forks"
	vgid "code.vegaprotocol.io/anchor/libs/id"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/paths"
	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/types"
)

const (
	namedLogger  = "snapshots"
	idPrefix     = "snap"
	idGeneration = 16
)

// Node is the part of the fork's RPC interface snapshots rely on.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Snapshot(ctx context.Context) (string, error)
	Revert(ctx context.Context, handle string) (bool, error)
}

type CreateRequest struct {
	SessionID     string
	BlockOverride *uint64
	Description   string
}

// Manager owns the snapshot registry of a single fork.
type Manager struct {
	log  *logging.Logger
	cfg  Config
	fork forks.Fork
	node Node

	store    *registry.Store[Snapshot]
	registry *registry.Collection[Snapshot]

	newID vgid.Generator
	now   func() time.Time
}

func NewManager(log *logging.Logger, cfg Config, registryCfg registry.Config, p paths.Paths, fork forks.Fork, node Node) *Manager {
	log = log.Named(namedLogger).With(logging.ForkID(fork.ID))
	return &Manager{
		log:      log,
		cfg:      cfg,
		fork:     fork,
		node:     node,
		store:    registry.NewStore[Snapshot](log, registryCfg, p.SnapshotRegistry(fork.ID)),
		registry: registry.NewCollection[Snapshot](),
		newID:    vgid.Prefixed(idPrefix, vgid.Short()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LoadRegistry reads the fork's snapshot registry. On failure the manager
// keeps an empty registry and the error is returned for the caller to
// report.
func (m *Manager) LoadRegistry() error {
	c, err := m.store.Load()
	if err != nil {
		m.registry = registry.NewCollection[Snapshot]()
		return err
	}
	m.registry = c
	return nil
}

// List returns the snapshots in creation order.
func (m *Manager) List() []Snapshot {
	return m.registry.Values()
}

func (m *Manager) ListBySession(sessionID string) []Snapshot {
	return m.registry.Filter(func(s Snapshot) bool {
		return s.SessionID == sessionID
	})
}

func (m *Manager) Get(id string) (Snapshot, bool) {
	return m.registry.Get(id)
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (Snapshot, error) {
	if req.SessionID != "" {
		if err := types.ValidateIdentifier("session", req.SessionID); err != nil {
			return Snapshot{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RPCTimeout.Get())
	defer cancel()

	var block uint64
	if req.BlockOverride != nil {
		block = *req.BlockOverride
	} else {
		number, err := m.node.BlockNumber(ctx)
		if err != nil {
			return Snapshot{}, fmt.Errorf("couldn't read the block number of fork %s: %w", m.fork.ID, err)
		}
		block = number
	}

	handle, err := m.node.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("couldn't snapshot fork %s: %w", m.fork.ID, err)
	}

	var snapshot Snapshot
	updated, err := m.store.Update(ctx, func(c *registry.Collection[Snapshot]) error {
		id, ok := vgid.Unique(m.newID, c.Has, idGeneration)
		if !ok {
			return fmt.Errorf("couldn't generate a snapshot id: %w", types.ErrDuplicateID)
		}
		snapshot = Snapshot{
			ID:           id,
			ForkID:       m.fork.ID,
			BlockNumber:  block,
			SessionID:    req.SessionID,
			Description:  req.Description,
			CreatedAt:    m.now(),
			RevertHandle: handle,
		}
		return c.Append(id, snapshot)
	})
	if err != nil {
		return Snapshot{}, err
	}
	m.registry = updated

	m.log.Info("snapshot created",
		logging.SnapshotID(snapshot.ID),
		logging.Uint64("block-number", block),
	)
	return snapshot, nil
}

// Revert restores the fork to the snapshot. The node invalidates every
// snapshot taken after it, so the snapshot and every later one are removed
// from the registry.
//
// When the node answers but no longer knows the handle, the handles are
// dead: the same entries are removed and types.ErrSnapshotInvalidated is
// returned. When the node cannot be reached, nothing is removed.
func (m *Manager) Revert(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RPCTimeout.Get())
	defer cancel()

	var (
		revertErr error
		removed   []Snapshot
	)
	updated, err := m.store.Update(ctx, func(c *registry.Collection[Snapshot]) error {
		snapshot, ok := c.Get(id)
		if !ok {
			return fmt.Errorf("%q on fork %s: %w", id, m.fork.ID, types.ErrSnapshotNotFound)
		}

		reverted, err := m.node.Revert(ctx, snapshot.RevertHandle)
		switch {
		case err == nil && !reverted:
			revertErr = fmt.Errorf("%q: %w", id, types.ErrSnapshotInvalidated)
		case errors.Is(err, types.ErrNodeRejected):
			revertErr = fmt.Errorf("%q: %w: %w", id, types.ErrSnapshotInvalidated, err)
		case err != nil:
			return fmt.Errorf("couldn't revert fork %s to %q: %w", m.fork.ID, id, err)
		}

		removed = c.TruncateFrom(id)
		return nil
	})
	if err != nil {
		return err
	}
	m.registry = updated

	removedIDs := make([]string, 0, len(removed))
	for _, s := range removed {
		removedIDs = append(removedIDs, s.ID)
	}

	if revertErr != nil {
		m.log.Warn("snapshot handle rejected by the node, pruned the registry",
			logging.SnapshotID(id),
			logging.Strings("removed", removedIDs),
		)
		return revertErr
	}

	m.log.Info("fork reverted",
		logging.SnapshotID(id),
		logging.Strings("removed", removedIDs),
	)
	return nil
}
