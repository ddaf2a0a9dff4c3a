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

// Package node talks JSON-RPC to a forked node, or to the upstream network
// a fork is created from.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	namedLogger = "node"

	methodBlockNumber = "eth_blockNumber"
	methodSnapshot    = "evm_snapshot"
	methodRevert      = "evm_revert"
	methodDumpState   = "anvil_dumpState"
	methodLoadState   = "anvil_loadState"
)

type Client struct {
	log *logging.Logger
	rpc *rpc.Client
	url string
}

// Dial prepares a client for rawURL. With HTTP endpoints no connection is
// made until the first call.
func Dial(ctx context.Context, log *logging.Logger, rawURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("could not instantiate rpc client for %s: %w: %w", rawURL, types.ErrNodeUnreachable, err)
	}

	return &Client{
		log: log.Named(namedLogger).With(logging.String("url", rawURL)),
		rpc: rpcClient,
		url: rawURL,
	}, nil
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Close() {
	c.rpc.Close()
}

// Call sends a request and decodes the result. An error answered by the
// node is reported as types.ErrNodeRejected, anything preventing an answer
// as types.ErrNodeUnreachable.
func (c *Client) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	c.log.Debug("calling node", logging.String("method", method))
	requestTime := time.Now()

	err := c.rpc.CallContext(ctx, result, method, args...)
	if err != nil {
		c.log.Debug("node call failed",
			logging.String("method", method),
			logging.Duration("elapsed", time.Since(requestTime)),
			logging.Error(err),
		)
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return fmt.Errorf("%s: %w: %w", method, types.ErrNodeRejected, err)
		}
		return fmt.Errorf("%s: %w: %w", method, types.ErrNodeUnreachable, err)
	}

	c.log.Debug("node answered",
		logging.String("method", method),
		logging.Duration("elapsed", time.Since(requestTime)),
	)
	return nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var number hexutil.Uint64
	if err := c.Call(ctx, &number, methodBlockNumber); err != nil {
		return 0, err
	}
	return uint64(number), nil
}

// Snapshot asks the node to capture its state and returns the handle to
// revert to it. The handle is opaque.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, &raw, methodSnapshot); err != nil {
		return "", err
	}
	handle, err := decodeHandle(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", methodSnapshot, types.ErrNodeRejected, err)
	}
	return handle, nil
}

// Revert reports false when the node no longer knows the handle.
func (c *Client) Revert(ctx context.Context, handle string) (bool, error) {
	var reverted bool
	if err := c.Call(ctx, &reverted, methodRevert, handle); err != nil {
		return false, err
	}
	return reverted, nil
}

func (c *Client) DumpState(ctx context.Context) ([]byte, error) {
	var state hexutil.Bytes
	if err := c.Call(ctx, &state, methodDumpState); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *Client) LoadState(ctx context.Context, state []byte) error {
	var loaded bool
	if err := c.Call(ctx, &loaded, methodLoadState, hexutil.Bytes(state)); err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("%s: %w", methodLoadState, types.ErrNodeRejected)
	}
	return nil
}

// decodeHandle accepts both the quantity string and the plain number
// returned by the different node implementations.
func decodeHandle(raw json.RawMessage) (string, error) {
	var handle string
	if err := json.Unmarshal(raw, &handle); err == nil {
		if handle == "" {
			return "", errors.New("empty snapshot handle")
		}
		return handle, nil
	}

	var number uint64
	if err := json.Unmarshal(raw, &number); err != nil {
		return "", fmt.Errorf("unsupported snapshot handle %s", string(raw))
	}
	return hexutil.EncodeUint64(number), nil
}

