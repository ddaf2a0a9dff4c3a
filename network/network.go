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

// Package network is the static catalog of networks that can be forked.
package network

import (
	"fmt"
	"os"
	"strings"

	"code.vegaprotocol.io/anchor/types"
)

type Network int

const (
	Mainnet Network = iota + 1
	Sepolia
	Base
	Arbitrum
	Optimism
	Berachain
)

type definition struct {
	name     string
	chainID  uint64
	upstream string
}

// Upstream templates are expanded against the environment, so a private
// archive endpoint can be set with e.g. ANCHOR_MAINNET_RPC_URL.
var catalog = map[Network]definition{
	Mainnet:   {name: "mainnet", chainID: 1, upstream: "${ANCHOR_MAINNET_RPC_URL:-https://eth.llamarpc.com}"},
	Sepolia:   {name: "sepolia", chainID: 11155111, upstream: "${ANCHOR_SEPOLIA_RPC_URL:-https://rpc.sepolia.org}"},
	Base:      {name: "base", chainID: 8453, upstream: "${ANCHOR_BASE_RPC_URL:-https://mainnet.base.org}"},
	Arbitrum:  {name: "arbitrum", chainID: 42161, upstream: "${ANCHOR_ARBITRUM_RPC_URL:-https://arb1.arbitrum.io/rpc}"},
	Optimism:  {name: "optimism", chainID: 10, upstream: "${ANCHOR_OPTIMISM_RPC_URL:-https://mainnet.optimism.io}"},
	Berachain: {name: "berachain", chainID: 80094, upstream: "${ANCHOR_BERACHAIN_RPC_URL:-https://rpc.berachain.com}"},
}

// All lists the networks in catalog order.
func All() []Network {
	return []Network{Mainnet, Sepolia, Base, Arbitrum, Optimism, Berachain}
}

func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, n := range All() {
		names = append(names, n.Name())
	}
	return names
}

// Parse is case-insensitive. It never defaults: an unknown name is an error.
func Parse(s string) (Network, error) {
	name := strings.ToLower(s)
	for _, n := range All() {
		if catalog[n].name == name {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w %q, expected one of %s", types.ErrUnknownNetwork, s, strings.Join(Names(), ", "))
}

func (n Network) IsValid() bool {
	_, ok := catalog[n]
	return ok
}

func (n Network) Name() string {
	if d, ok := catalog[n]; ok {
		return d.name
	}
	return fmt.Sprintf("network(%d)", int(n))
}

func (n Network) String() string {
	return n.Name()
}

func (n Network) ChainID() uint64 {
	return catalog[n].chainID
}

// UpstreamTemplate returns the raw, unexpanded endpoint template.
func (n Network) UpstreamTemplate() string {
	return catalog[n].upstream
}

// UpstreamURL resolves the endpoint. A non-empty override, typically coming
// from the configuration file, replaces the catalog template.
func (n Network) UpstreamURL(override string) string {
	template := n.UpstreamTemplate()
	if override != "" {
		template = override
	}
	return expand(template)
}

func (n Network) MarshalText() ([]byte, error) {
	if !n.IsValid() {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownNetwork, int(n))
	}
	return []byte(n.Name()), nil
}

func (n *Network) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// expand substitutes ${VAR} and ${VAR:-default} from the environment.
func expand(template string) string {
	return os.Expand(template, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		if hasFallback {
			return fallback
		}
		return ""
	})
}
