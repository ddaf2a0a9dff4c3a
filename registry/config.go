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

package registry

import (
	"time"

	"code.vegaprotocol.io/anchor/config/encoding"
)

type Config struct {
	LockTimeout    encoding.Duration `long:"lock-timeout" description:"How long to wait for another anchor process to release a registry"`
	LockRetryDelay encoding.Duration `long:"lock-retry-delay" description:"Delay between two attempts at taking a registry lock"`
}

func NewDefaultConfig() Config {
	return Config{
		LockTimeout:    encoding.Duration{Duration: 10 * time.Second},
		LockRetryDelay: encoding.Duration{Duration: 50 * time.Millisecond},
	}
}
