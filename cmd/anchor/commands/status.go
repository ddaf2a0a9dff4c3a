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

package cmd

import (
	"fmt"
	"io"
	"os"

	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	"code.vegaprotocol.io/anchor/forks"
	"code.vegaprotocol.io/anchor/version"

	"github.com/spf13/cobra"
)

var (
	statusLong = cli.LongDesc(`
		Show the version, the zone, the home and the active forks.
	`)

	statusExample = cli.Examples(`
		# Show the status
		{{.Software}} status
	`)
)

type StatusHandler func() (*StatusResponse, error)

func NewCmdStatus(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func() (*StatusResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return Status(rt)
	}

	return BuildCmdStatus(w, h, rf)
}

func BuildCmdStatus(w io.Writer, handler StatusHandler, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the status of anchor",
		Long:    statusLong,
		Example: statusExample,
		Args:    requireArgs(),
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := handler()
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintStatusResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	return cmd
}

type StatusResponse struct {
	Version  string       `json:"version"`
	Zone     Zone         `json:"zone"`
	Home     string       `json:"home"`
	Registry string       `json:"registry"`
	Forks    []forks.Fork `json:"forks"`
}

func Status(rt *Runtime) (*StatusResponse, error) {
	all := rt.ForkManager().All()
	if all == nil {
		all = []forks.Fork{}
	}

	return &StatusResponse{
		Version:  version.Get(),
		Zone:     rt.Zone,
		Home:     rt.Paths.Home(),
		Registry: rt.Paths.ForkRegistry(),
		Forks:    all,
	}, nil
}

func PrintStatusResponse(w io.Writer, resp *StatusResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.Bold("Anchor status").NextLine()
	str.Field("Version", resp.Version)
	str.Field("Zone", resp.Zone.String())
	str.Field("Home", resp.Home)
	str.Field("Registry", resp.Registry)
	str.NextLine()

	if len(resp.Forks) == 0 {
		str.InfoText("No active forks").NextLine()
		return
	}

	str.Text(fmt.Sprintf("Active forks: %d", len(resp.Forks))).NextLine()
	for _, fork := range resp.Forks {
		str.Pad().Text(fmt.Sprintf("- %s (%s:%d)", fork.ID, fork.Network.Name(), fork.Port)).NextLine()
	}
}
