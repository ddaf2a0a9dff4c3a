//go:build !unix

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
	"errors"
	"time"

	"code.vegaprotocol.io/anchor/logging"
)

var ErrUnsupportedPlatform = errors.New("managing node processes is only supported on unix platforms")

type OSProcessController struct{}

func NewOSProcessController(_ *logging.Logger) *OSProcessController {
	return &OSProcessController{}
}

func (c *OSProcessController) Start(_ NodeSpec) (NodeProcess, error) {
	return NodeProcess{}, ErrUnsupportedPlatform
}

func (c *OSProcessController) Stop(_ context.Context, _ int, _ time.Duration) error {
	return ErrUnsupportedPlatform
}
