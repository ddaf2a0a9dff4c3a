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

// Package paths describes where anchor keeps its state on disk.
//
// Everything lives under a single home folder:
//
//	<home>/config.toml
//	<home>/registry.json                      forks, unless moved elsewhere
//	<home>/snapshots/<fork-id>.json           snapshots of one fork
//	<home>/checkpoints/<session-id>.json      checkpoints of one session
//	<home>/checkpoints/data/<id>.state        checkpoint state blobs
//	<home>/logs/<fork-id>.log                 node process output
package paths

import (
	"path/filepath"

	vgfs "code.vegaprotocol.io/anchor/libs/fs"

	"github.com/adrg/xdg"
)

const (
	appName = "anchor"

	ConfigFileName       = "config.toml"
	ForkRegistryFileName = "registry.json"
	snapshotsDirName     = "snapshots"
	checkpointsDirName   = "checkpoints"
	checkpointDataDir    = "data"
	logsDirName          = "logs"

	registryExt = ".json"
	stateExt    = ".state"
	logExt      = ".log"
)

type Paths struct {
	home         string
	forkRegistry string
}

// New returns the layout rooted at customHome, or at the XDG data home when
// customHome is empty.
func New(customHome string) Paths {
	if len(customHome) != 0 {
		return Paths{home: customHome}
	}
	return Paths{home: filepath.Join(xdg.DataHome, appName)}
}

func (p Paths) Home() string {
	return p.home
}

func (p Paths) ConfigFile() string {
	return filepath.Join(p.home, ConfigFileName)
}

func (p Paths) ForkRegistry() string {
	if len(p.forkRegistry) != 0 {
		return p.forkRegistry
	}
	return filepath.Join(p.home, ForkRegistryFileName)
}

// WithForkRegistry moves the fork registry to path, leaving the rest of the
// layout under the home. An empty path keeps the default location.
func (p Paths) WithForkRegistry(path string) Paths {
	p.forkRegistry = path
	return p
}

func (p Paths) SnapshotsHome() string {
	return filepath.Join(p.home, snapshotsDirName)
}

func (p Paths) SnapshotRegistry(forkID string) string {
	return filepath.Join(p.SnapshotsHome(), forkID+registryExt)
}

func (p Paths) CheckpointsHome() string {
	return filepath.Join(p.home, checkpointsDirName)
}

func (p Paths) CheckpointRegistry(sessionID string) string {
	return filepath.Join(p.CheckpointsHome(), sessionID+registryExt)
}

func (p Paths) CheckpointDataHome() string {
	return filepath.Join(p.CheckpointsHome(), checkpointDataDir)
}

// CheckpointStateFileName is the blob file name recorded in a checkpoint.
func CheckpointStateFileName(checkpointID string) string {
	return checkpointID + stateExt
}

func (p Paths) LogsHome() string {
	return filepath.Join(p.home, logsDirName)
}

func (p Paths) NodeLog(forkID string) string {
	return filepath.Join(p.LogsHome(), forkID+logExt)
}

// EnsureLayout creates every folder of the layout.
func (p Paths) EnsureLayout() error {
	for _, dir := range []string{p.home, filepath.Dir(p.ForkRegistry()), p.SnapshotsHome(), p.CheckpointsHome(), p.CheckpointDataHome(), p.LogsHome()} {
		if err := vgfs.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// List returns the main locations, keyed by a short name, for display.
func (p Paths) List() map[string]string {
	return map[string]string{
		"Home":            p.home,
		"Config":          p.ConfigFile(),
		"ForkRegistry":    p.ForkRegistry(),
		"Snapshots":       p.SnapshotsHome(),
		"Checkpoints":     p.CheckpointsHome(),
		"CheckpointsData": p.CheckpointDataHome(),
		"Logs":            p.LogsHome(),
	}
}
