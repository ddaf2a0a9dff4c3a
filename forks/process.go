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
	"net"
	"strconv"
	"time"

	"code.vegaprotocol.io/anchor/client/node"
	"code.vegaprotocol.io/anchor/logging"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/process_mock.go -package mocks code.vegaprotocol.io/anchor/forks ProcessController,PortProber

// NodeSpec describes the node process to start for a fork.
type NodeSpec struct {
	Binary  string
	Args    []string
	LogFile string
}

// NodeProcess is a started node. Exited is closed when the process exits
// while this anchor process still watches it.
type NodeProcess struct {
	PID    int
	Exited <-chan struct{}
}

// ProcessController starts and stops node processes.
type ProcessController interface {
	Start(spec NodeSpec) (NodeProcess, error)
	// Stop terminates the process, forcefully after the grace period. A
	// process that no longer exists is not an error.
	Stop(ctx context.Context, pid int, grace time.Duration) error
}

// PortProber finds ports a node can listen on.
type PortProber interface {
	IsBindable(host string, port int) bool
	Ephemeral(host string) (int, error)
}

// BlockNumberReader is the subset of the node client used by the fork
// manager.
type BlockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

type DialFunc func(ctx context.Context, url string) (BlockNumberReader, error)

// NodeDialer dials through the JSON-RPC node client.
func NodeDialer(log *logging.Logger) DialFunc {
	return func(ctx context.Context, url string) (BlockNumberReader, error) {
		client, err := node.Dial(ctx, log, url)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// OSPortProber probes ports by binding them.
type OSPortProber struct{}

func (OSPortProber) IsBindable(host string, port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// Ephemeral asks the OS for a free port. The port is released before
// returning, so it can still be taken by someone else.
func (OSPortProber) Ephemeral(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
