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

// Package config ties together the configuration of every anchor package.
// It is read from a TOML file in the anchor home. The file is optional:
// missing keys keep their default value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"code.vegaprotocol.io/anchor/checkpoints"
	"code.vegaprotocol.io/anchor/forks"
	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/snapshots"
	"code.vegaprotocol.io/anchor/types"

	"github.com/BurntSushi/toml"
)

var ErrConfigAlreadyExists = errors.New("configuration file already exists")

// Config ties together all other application configuration types.
type Config struct {
	Logging     logging.Config     `group:"Logging" namespace:"logging"`
	Registry    registry.Config    `group:"Registry" namespace:"registry"`
	Forks       forks.Config       `group:"Forks" namespace:"forks"`
	Snapshots   snapshots.Config   `group:"Snapshots" namespace:"snapshots"`
	Checkpoints checkpoints.Config `group:"Checkpoints" namespace:"checkpoints"`
}

// NewDefaultConfig returns the default configuration of every package.
func NewDefaultConfig() Config {
	return Config{
		Logging:     logging.NewDefaultConfig(),
		Registry:    registry.NewDefaultConfig(),
		Forks:       forks.NewDefaultConfig(),
		Snapshots:   snapshots.NewDefaultConfig(),
		Checkpoints: checkpoints.NewDefaultConfig(),
	}
}

// Read loads the configuration file at path on top of the defaults. A
// missing file yields the defaults.
func Read(path string) (Config, error) {
	cfg := NewDefaultConfig()

	exists, err := vgfs.FileExists(path)
	if err != nil {
		return cfg, fmt.Errorf("couldn't verify the configuration file exists: %w: %w", types.ErrIO, err)
	}
	if !exists {
		return cfg, nil
	}

	buf, err := vgfs.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("couldn't read configuration file %s: %w: %w", path, types.ErrIO, err)
	}

	md, err := toml.Decode(string(buf), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("couldn't parse configuration file %s: %w: %w", path, types.ErrSchema, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("configuration file %s has unknown keys %s: %w", path, strings.Join(keys, ", "), types.ErrSchema)
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return cfg, fmt.Errorf("configuration file %s: %w: %w", path, types.ErrSchema, err)
	}

	return cfg, nil
}

// Write saves the configuration at path. An existing file is only replaced
// when overwrite is set.
func Write(path string, cfg Config, overwrite bool) error {
	exists, err := vgfs.FileExists(path)
	if err != nil {
		return fmt.Errorf("couldn't verify the configuration file exists: %w: %w", types.ErrIO, err)
	}
	if exists && !overwrite {
		return fmt.Errorf("%s: %w", path, ErrConfigAlreadyExists)
	}

	buf := bytes.Buffer{}
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("couldn't encode the configuration: %w", err)
	}

	if _, err := vgfs.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("couldn't write configuration file %s: %w: %w", path, types.ErrIO, err)
	}
	return nil
}
