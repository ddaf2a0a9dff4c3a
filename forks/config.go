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
	"time"

	"code.vegaprotocol.io/anchor/config/encoding"
)

const (
	DefaultNodeBinary = "anvil"
	DefaultHost       = "127.0.0.1"
)

// Config represent the configuration of the fork manager.
type Config struct {
	NodeBinary            string            `long:"node-binary" description:"Binary started for every fork"`
	NodeArgs              []string          `long:"node-arg" description:"Extra arguments given to the node binary"`
	Host                  string            `long:"host" description:"Interface the forks listen on"`
	ReadinessTimeout      encoding.Duration `long:"readiness-timeout" description:"How long a new fork has to answer its first RPC request"`
	ReadinessPollInterval encoding.Duration `long:"readiness-poll-interval" description:"Delay between two readiness probes"`
	StopGracePeriod       encoding.Duration `long:"stop-grace-period" description:"How long a fork has to exit before it is killed"`
	PortProbeRetries      uint64            `long:"port-probe-retries" description:"Number of attempts at finding a free port"`
	UpstreamTimeout       encoding.Duration `long:"upstream-timeout" description:"Timeout when resolving the latest block upstream"`
	Upstreams             map[string]string `long:"upstream" description:"Upstream endpoint per network, overriding the built-in one"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		NodeBinary:            DefaultNodeBinary,
		NodeArgs:              []string{},
		Host:                  DefaultHost,
		ReadinessTimeout:      encoding.Duration{Duration: 30 * time.Second},
		ReadinessPollInterval: encoding.Duration{Duration: 250 * time.Millisecond},
		StopGracePeriod:       encoding.Duration{Duration: 5 * time.Second},
		PortProbeRetries:      10,
		UpstreamTimeout:       encoding.Duration{Duration: 10 * time.Second},
		Upstreams:             map[string]string{},
	}
}
