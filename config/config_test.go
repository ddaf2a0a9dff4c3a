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

package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"code.vegaprotocol.io/anchor/config"
	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	vgtest "code.vegaprotocol.io/anchor/libs/test"
	"code.vegaprotocol.io/anchor/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("Reading a missing file returns the defaults", testReadingMissingFileReturnsDefaults)
	t.Run("Writing then reading returns the same configuration", testWritingThenReadingReturnsSameConfiguration)
	t.Run("Values from the file override the defaults", testValuesFromFileOverrideDefaults)
	t.Run("Unknown keys are rejected", testUnknownKeysAreRejected)
	t.Run("Invalid durations are rejected", testInvalidDurationsAreRejected)
	t.Run("Existing file is not overwritten by default", testExistingFileIsNotOverwrittenByDefault)
}

func testReadingMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Read(filepath.Join(t.TempDir(), "config.toml"))

	require.NoError(t, err)
	assert.Equal(t, config.NewDefaultConfig(), cfg)
}

func testWritingThenReadingReturnsSameConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	expected := config.NewDefaultConfig()
	expected.Forks.NodeArgs = []string{"--steps-tracing"}
	expected.Forks.Upstreams = map[string]string{"mainnet": "https://archive.example"}

	require.NoError(t, config.Write(path, expected, false))
	vgtest.AssertFileAccess(t, path)

	cfg, err := config.Read(path)
	require.NoError(t, err)
	assert.Equal(t, expected, cfg)
}

func testValuesFromFileOverrideDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, vgfs.WriteFile(path, []byte(`
[Logging]
  Level = "debug"

[Forks]
  NodeBinary = "/opt/foundry/bin/anvil"
  ReadinessTimeout = "1m"

[Forks.Upstreams]
  sepolia = "https://sepolia.archive.example"

[Checkpoints]
  RPCTimeout = "5m"
`)))

	cfg, err := config.Read(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/opt/foundry/bin/anvil", cfg.Forks.NodeBinary)
	assert.Equal(t, time.Minute, cfg.Forks.ReadinessTimeout.Get())
	assert.Equal(t, "https://sepolia.archive.example", cfg.Forks.Upstreams["sepolia"])
	assert.Equal(t, 5*time.Minute, cfg.Checkpoints.RPCTimeout.Get())
	// Untouched values keep their default.
	assert.Equal(t, config.NewDefaultConfig().Forks.StopGracePeriod, cfg.Forks.StopGracePeriod)
	assert.Equal(t, config.NewDefaultConfig().Registry, cfg.Registry)
}

func testUnknownKeysAreRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, vgfs.WriteFile(path, []byte("[Forks]\n  NodeBinaryy = \"anvil\"\n")))

	_, err := config.Read(path)

	require.ErrorIs(t, err, types.ErrSchema)
	assert.Contains(t, err.Error(), "Forks.NodeBinaryy")
}

func testInvalidDurationsAreRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, vgfs.WriteFile(path, []byte("[Registry]\n  LockTimeout = \"soon\"\n")))

	_, err := config.Read(path)

	require.ErrorIs(t, err, types.ErrSchema)
}

func testExistingFileIsNotOverwrittenByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.Write(path, config.NewDefaultConfig(), false))

	err := config.Write(path, config.NewDefaultConfig(), false)
	require.ErrorIs(t, err, config.ErrConfigAlreadyExists)

	require.NoError(t, config.Write(path, config.NewDefaultConfig(), true))
}
