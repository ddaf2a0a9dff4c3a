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

package cmd

import (
	"context"
	"fmt"
	"io"

	"code.vegaprotocol.io/anchor/checkpoints"
	"code.vegaprotocol.io/anchor/client/node"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/config"
	"code.vegaprotocol.io/anchor/forks"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/paths"
	"code.vegaprotocol.io/anchor/snapshots"
	"code.vegaprotocol.io/anchor/types"
)

// Runtime holds what the commands share: the home layout, the
// configuration read from it, the logger and the zone.
type Runtime struct {
	Log    *logging.Logger
	Paths  paths.Paths
	Config config.Config
	Zone   Zone
}

// NewRuntime reads the configuration of the home selected by the root flags
// and builds the logger writing to logOut.
func NewRuntime(rf *RootFlags, logOut io.Writer) (*Runtime, error) {
	p := paths.New(rf.Home).WithForkRegistry(rf.Registry)

	cfg, err := config.Read(p.ConfigFile())
	if err != nil {
		return nil, fmt.Errorf("couldn't read the configuration: %w", err)
	}

	levelName := cfg.Logging.Level
	if len(rf.LogLevel) > 0 {
		levelName = rf.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, flags.InvalidFormatError("log-level", err.Error())
	}

	log := buildCmdLogger(rf.Output, cfg.Logging.Environment, logOut, level)

	zone, ok := ParseZone(rf.Zone)
	if !ok {
		log.Warn("invalid zone, using the standard one",
			logging.String("zone", rf.Zone),
			logging.Strings("supported", SupportedZones),
		)
	}

	return &Runtime{
		Log:    log,
		Paths:  p,
		Config: cfg,
		Zone:   zone,
	}, nil
}

func (r *Runtime) Close() {
	r.Log.AtExit()
}

// ForkManager returns a manager over the fork registry. A registry that
// cannot be loaded is reported and treated as empty.
func (r *Runtime) ForkManager() *forks.Manager {
	m := forks.NewManager(
		r.Log,
		r.Config.Forks,
		r.Config.Registry,
		r.Paths,
		forks.NewOSProcessController(r.Log),
		forks.OSPortProber{},
		forks.NodeDialer(r.Log),
	)
	if err := m.LoadRegistry(); err != nil {
		r.Log.Warn("couldn't load the fork registry, continuing without records", logging.Error(err))
	}
	return m
}

// Fork looks a running fork up in the registry.
func (r *Runtime) Fork(id string) (forks.Fork, error) {
	if err := types.ValidateIdentifier("fork", id); err != nil {
		return forks.Fork{}, err
	}
	fork, ok := r.ForkManager().Get(id)
	if !ok {
		return forks.Fork{}, fmt.Errorf("%w: %s", types.ErrForkNotFound, id)
	}
	return fork, nil
}

// DialFork connects to the node behind the fork. The caller closes the
// client.
func (r *Runtime) DialFork(ctx context.Context, fork forks.Fork) (*node.Client, error) {
	return node.Dial(ctx, r.Log, fork.RPCURL)
}

// SnapshotManager returns a manager over the fork's snapshot registry. The
// node is only needed to create and revert snapshots.
func (r *Runtime) SnapshotManager(fork forks.Fork, n snapshots.Node) *snapshots.Manager {
	m := snapshots.NewManager(r.Log, r.Config.Snapshots, r.Config.Registry, r.Paths, fork, n)
	if err := m.LoadRegistry(); err != nil {
		r.Log.Warn("couldn't load the snapshot registry, continuing without records",
			logging.ForkID(fork.ID),
			logging.Error(err),
		)
	}
	return m
}

// CheckpointManager returns a manager over the session's checkpoint
// registry. The fork and node are only needed to save and restore.
func (r *Runtime) CheckpointManager(sessionID string, fork forks.Fork, n checkpoints.Node) (*checkpoints.Manager, error) {
	m, err := checkpoints.NewManager(r.Log, r.Config.Checkpoints, r.Config.Registry, r.Paths, sessionID, fork, n)
	if err != nil {
		return nil, err
	}
	if err := m.LoadRegistry(); err != nil {
		r.Log.Warn("couldn't load the checkpoint registry, continuing without records",
			logging.SessionID(sessionID),
			logging.Error(err),
		)
	}
	return m, nil
}

func buildCmdLogger(output, environment string, out io.Writer, level logging.Level) *logging.Logger {
	if output == flags.JSONOutput || environment == "prod" {
		return logging.NewProdLogger(out, level)
	}
	return logging.NewDevLogger(out, level)
}
