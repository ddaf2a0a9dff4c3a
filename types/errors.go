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

package types

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by the managers. The command line
// maps kinds to exit codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindSchema
	KindResource
	KindRPC
	KindCorruption
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindSchema:
		return "schema"
	case KindResource:
		return "resource"
	case KindRPC:
		return "rpc"
	case KindCorruption:
		return "corruption"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound   = errors.New("not found")
	ErrSchema     = errors.New("invalid input")
	ErrResource   = errors.New("resource unavailable")
	ErrRPCFailure = errors.New("rpc failure")
	ErrCorruption = errors.New("corrupted state")
	ErrIO         = errors.New("i/o failure")
)

var (
	ErrForkNotFound       = fmt.Errorf("fork %w", ErrNotFound)
	ErrSnapshotNotFound   = fmt.Errorf("snapshot %w", ErrNotFound)
	ErrCheckpointNotFound = fmt.Errorf("checkpoint %w", ErrNotFound)

	ErrUnknownNetwork    = fmt.Errorf("%w: unknown network", ErrSchema)
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrSchema)
	ErrMalformedRegistry = fmt.Errorf("%w: malformed registry", ErrSchema)
	ErrNetworkMismatch   = fmt.Errorf("%w: network mismatch", ErrSchema)
	ErrSessionIsRequired = fmt.Errorf("%w: a session is required", ErrSchema)
	ErrForkIsRequired    = fmt.Errorf("%w: a running fork is required", ErrSchema)
	ErrDuplicateID       = fmt.Errorf("%w: duplicate identifier", ErrSchema)

	ErrPortUnavailable     = fmt.Errorf("%w: port unavailable", ErrResource)
	ErrUpstreamUnreachable = fmt.Errorf("%w: upstream unreachable", ErrResource)
	ErrSpawnFailed         = fmt.Errorf("%w: node process failed to start", ErrResource)
	ErrReadinessTimeout    = fmt.Errorf("%w: node did not become ready in time", ErrResource)
	ErrRegistryLocked      = fmt.Errorf("%w: registry is locked by another process", ErrResource)
	ErrStopFailed          = fmt.Errorf("%w: node process could not be stopped", ErrResource)

	ErrNodeUnreachable     = fmt.Errorf("%w: node unreachable", ErrRPCFailure)
	ErrNodeRejected        = fmt.Errorf("%w: node rejected the request", ErrRPCFailure)
	ErrSnapshotInvalidated = fmt.Errorf("%w: snapshot handle is no longer valid on the node", ErrRPCFailure)
)

// KindOf returns the kind of the first sentinel found in err's chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrSchema):
		return KindSchema
	case errors.Is(err, ErrResource):
		return KindResource
	case errors.Is(err, ErrRPCFailure):
		return KindRPC
	case errors.Is(err, ErrCorruption):
		return KindCorruption
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindUnknown
	}
}
