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

// Package nodetest serves a fake forked node over JSON-RPC. It implements
// the handful of methods anchor relies on, with the stacked snapshot
// semantics of a real node.
package nodetest

import (
	"errors"
	"net"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrRejected = errors.New("request rejected by the fake node")

type snapshot struct {
	handle      string
	blockNumber uint64
	state       []byte
}

type Node struct {
	mu             sync.Mutex
	blockNumber    uint64
	state          []byte
	snapshots      []snapshot
	nextHandle     uint64
	rejectRequests bool
	loadedStates   int

	rpcServer  *rpc.Server
	httpServer *httptest.Server
	closeOnce  sync.Once
}

// New starts a fake node. It is stopped when the test ends.
func New(t *testing.T) *Node {
	t.Helper()

	n := &Node{
		rpcServer: rpc.NewServer(),
	}

	services := map[string]interface{}{
		"eth":   &ethAPI{node: n},
		"evm":   &evmAPI{node: n},
		"anvil": &anvilAPI{node: n},
	}
	for namespace, service := range services {
		if err := n.rpcServer.RegisterName(namespace, service); err != nil {
			t.Fatalf("couldn't register the %s namespace: %v", namespace, err)
		}
	}

	n.httpServer = httptest.NewServer(n.rpcServer)
	t.Cleanup(n.Close)
	return n
}

func (n *Node) URL() string {
	return n.httpServer.URL
}

func (n *Node) Port() int {
	return n.httpServer.Listener.Addr().(*net.TCPAddr).Port
}

// Close stops the node. Clients then get transport errors.
func (n *Node) Close() {
	n.closeOnce.Do(func() {
		n.httpServer.Close()
		n.rpcServer.Stop()
	})
}

func (n *Node) SetBlockNumber(number uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blockNumber = number
}

func (n *Node) BlockNumber() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.blockNumber
}

func (n *Node) SetState(state []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = append([]byte{}, state...)
}

func (n *Node) State() []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]byte{}, n.state...)
}

// Restart forgets every snapshot handle, as a restarted node would.
func (n *Node) Restart() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots = nil
}

// RejectRequests makes every call answer with a JSON-RPC error.
func (n *Node) RejectRequests(reject bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejectRequests = reject
}

func (n *Node) SnapshotCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snapshots)
}

func (n *Node) LoadedStates() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loadedStates
}

type ethAPI struct {
	node *Node
}

func (api *ethAPI) BlockNumber() (hexutil.Uint64, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rejectRequests {
		return 0, ErrRejected
	}
	return hexutil.Uint64(n.blockNumber), nil
}

type evmAPI struct {
	node *Node
}

func (api *evmAPI) Snapshot() (string, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rejectRequests {
		return "", ErrRejected
	}
	n.nextHandle++
	handle := hexutil.EncodeUint64(n.nextHandle)
	n.snapshots = append(n.snapshots, snapshot{
		handle:      handle,
		blockNumber: n.blockNumber,
		state:       append([]byte{}, n.state...),
	})
	return handle, nil
}

// Revert restores the state captured by handle and drops that snapshot and
// every later one.
func (api *evmAPI) Revert(handle string) (bool, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rejectRequests {
		return false, ErrRejected
	}
	for i, s := range n.snapshots {
		if s.handle == handle {
			n.blockNumber = s.blockNumber
			n.state = s.state
			n.snapshots = n.snapshots[:i]
			return true, nil
		}
	}
	return false, nil
}

type anvilAPI struct {
	node *Node
}

func (api *anvilAPI) DumpState() (hexutil.Bytes, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rejectRequests {
		return nil, ErrRejected
	}
	return append(hexutil.Bytes{}, n.state...), nil
}

func (api *anvilAPI) LoadState(state hexutil.Bytes) (bool, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rejectRequests {
		return false, ErrRejected
	}
	n.state = append([]byte{}, state...)
	n.loadedStates++
	return true, nil
}
