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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"code.vegaprotocol.io/anchor/forks"
	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	vgid "code.vegaprotocol.io/anchor/libs/id"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/paths"
	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/types"
)

const (
	namedLogger  = "checkpoints"
	idPrefix     = "cp"
	idGeneration = 16
)

// Node is the part of the fork's RPC interface checkpoints rely on.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	DumpState(ctx context.Context) ([]byte, error)
	LoadState(ctx context.Context, state []byte) error
}

// Manager owns the checkpoint registry of a session and the state files of
// its checkpoints. The fork is the one checkpoints are saved from and
// restored into. A manager built without fork can only list.
type Manager struct {
	log       *logging.Logger
	cfg       Config
	sessionID string
	fork      forks.Fork
	node      Node
	dataHome  string

	store    *registry.Store[Checkpoint]
	registry *registry.Collection[Checkpoint]

	newID vgid.Generator
	now   func() time.Time
}

func NewManager(
	log *logging.Logger,
	cfg Config,
	registryCfg registry.Config,
	p paths.Paths,
	sessionID string,
	fork forks.Fork,
	node Node,
) (*Manager, error) {
	if len(sessionID) == 0 {
		return nil, types.ErrSessionIsRequired
	}
	if err := types.ValidateIdentifier("session", sessionID); err != nil {
		return nil, err
	}

	log = log.Named(namedLogger).With(logging.SessionID(sessionID))
	return &Manager{
		log:       log,
		cfg:       cfg,
		sessionID: sessionID,
		fork:      fork,
		node:      node,
		dataHome:  p.CheckpointDataHome(),
		store:     registry.NewStore[Checkpoint](log, registryCfg, p.CheckpointRegistry(sessionID)),
		registry:  registry.NewCollection[Checkpoint](),
		newID:     vgid.Prefixed(idPrefix, vgid.Short()),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// LoadRegistry reads the session's checkpoint registry. On failure the
// manager keeps an empty registry and the error is returned for the caller
// to report.
func (m *Manager) LoadRegistry() error {
	c, err := m.store.Load()
	if err != nil {
		m.registry = registry.NewCollection[Checkpoint]()
		return err
	}
	m.registry = c
	return nil
}

// List returns the session's checkpoints in creation order, whatever fork
// they were taken from. Every state file is verified.
func (m *Manager) List() ([]Checkpoint, error) {
	checkpoints := m.registry.Values()
	for _, cp := range checkpoints {
		if err := m.Verify(cp); err != nil {
			return nil, err
		}
	}
	return checkpoints, nil
}

func (m *Manager) Get(id string) (Checkpoint, bool) {
	return m.registry.Get(id)
}

// Verify checks the state file exists and has the recorded size.
func (m *Manager) Verify(cp Checkpoint) error {
	path, err := m.statePath(cp)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("state file of checkpoint %s is missing: %w", cp.ID, types.ErrCorruption)
		}
		return fmt.Errorf("couldn't inspect state file of checkpoint %s: %w: %w", cp.ID, types.ErrIO, err)
	}
	if info.Size() != cp.SizeBytes {
		return fmt.Errorf("state file of checkpoint %s has %d bytes, expected %d: %w", cp.ID, info.Size(), cp.SizeBytes, types.ErrCorruption)
	}
	return nil
}

// Save dumps the fork's state to a file and records it. Either both the
// file and the record exist afterwards, or neither.
func (m *Manager) Save(ctx context.Context, description string) (Checkpoint, error) {
	if m.fork.IsZero() || m.node == nil {
		return Checkpoint{}, fmt.Errorf("couldn't save a checkpoint: %w", types.ErrForkIsRequired)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RPCTimeout.Get())
	defer cancel()

	block, err := m.node.BlockNumber(ctx)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("couldn't read the block number of fork %s: %w", m.fork.ID, err)
	}

	state, err := m.node.DumpState(ctx)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("couldn't dump the state of fork %s: %w", m.fork.ID, err)
	}

	if err := vgfs.EnsureDir(m.dataHome); err != nil {
		return Checkpoint{}, fmt.Errorf("couldn't create the checkpoint data folder: %w: %w", types.ErrIO, err)
	}

	id, ok := vgid.Unique(m.newID, m.isTaken, idGeneration)
	if !ok {
		return Checkpoint{}, fmt.Errorf("couldn't generate a checkpoint id: %w", types.ErrDuplicateID)
	}

	stateFile := paths.CheckpointStateFileName(id)
	statePath := filepath.Join(m.dataHome, stateFile)

	size, err := vgfs.WriteFileAtomic(statePath, state)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("couldn't write the state of checkpoint %s: %w: %w", id, types.ErrIO, err)
	}

	cp := Checkpoint{
		ID:          id,
		ForkID:      m.fork.ID,
		SessionID:   m.sessionID,
		Network:     m.fork.Network,
		BlockNumber: block,
		SizeBytes:   size,
		Description: description,
		CreatedAt:   m.now(),
		StateFile:   stateFile,
	}

	updated, err := m.store.Update(ctx, func(c *registry.Collection[Checkpoint]) error {
		return c.Append(id, cp)
	})
	if err != nil {
		if rmErr := os.Remove(statePath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.log.Error("couldn't remove the state file of an unrecorded checkpoint",
				logging.CheckpointID(id),
				logging.Error(rmErr),
			)
		}
		return Checkpoint{}, err
	}
	m.registry = updated

	m.log.Info("checkpoint saved",
		logging.CheckpointID(id),
		logging.ForkID(m.fork.ID),
		logging.Uint64("block-number", block),
		logging.Int64("size-bytes", size),
	)
	return cp, nil
}

// Restore loads the checkpoint's state into the fork. The fork must run the
// network the checkpoint was taken from.
func (m *Manager) Restore(ctx context.Context, id string) (Checkpoint, error) {
	if m.fork.IsZero() || m.node == nil {
		return Checkpoint{}, fmt.Errorf("couldn't restore a checkpoint: %w", types.ErrForkIsRequired)
	}

	cp, ok := m.registry.Get(id)
	if !ok {
		return Checkpoint{}, fmt.Errorf("%q in session %s: %w", id, m.sessionID, types.ErrCheckpointNotFound)
	}

	if cp.Network != m.fork.Network {
		return Checkpoint{}, fmt.Errorf("checkpoint %s was taken on %s, fork %s runs %s: %w",
			cp.ID, cp.Network, m.fork.ID, m.fork.Network, types.ErrNetworkMismatch)
	}

	state, err := m.readState(cp)
	if err != nil {
		return Checkpoint{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RPCTimeout.Get())
	defer cancel()

	if err := m.node.LoadState(ctx, state); err != nil {
		return Checkpoint{}, fmt.Errorf("couldn't load checkpoint %s into fork %s: %w", cp.ID, m.fork.ID, err)
	}

	m.log.Info("checkpoint restored",
		logging.CheckpointID(cp.ID),
		logging.ForkID(m.fork.ID),
	)
	return cp, nil
}

func (m *Manager) readState(cp Checkpoint) ([]byte, error) {
	if err := m.Verify(cp); err != nil {
		return nil, err
	}

	path, err := m.statePath(cp)
	if err != nil {
		return nil, err
	}

	state, err := vgfs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the state of checkpoint %s: %w: %w", cp.ID, types.ErrIO, err)
	}
	// The file may have changed between the verification and the read.
	if int64(len(state)) != cp.SizeBytes {
		return nil, fmt.Errorf("state file of checkpoint %s has %d bytes, expected %d: %w", cp.ID, len(state), cp.SizeBytes, types.ErrCorruption)
	}
	return state, nil
}

// statePath refuses state file names escaping the data folder.
func (m *Manager) statePath(cp Checkpoint) (string, error) {
	if cp.StateFile == "" || cp.StateFile != filepath.Base(cp.StateFile) || cp.StateFile == ".." {
		return "", fmt.Errorf("checkpoint %s has an invalid state file %q: %w", cp.ID, cp.StateFile, types.ErrCorruption)
	}
	return filepath.Join(m.dataHome, cp.StateFile), nil
}

// isTaken checks ids against the registry and the data folder, as state
// files of other sessions share the folder.
func (m *Manager) isTaken(id string) bool {
	if m.registry.Has(id) {
		return true
	}
	exists, err := vgfs.PathExists(filepath.Join(m.dataHome, paths.CheckpointStateFileName(id)))
	return err != nil || exists
}
