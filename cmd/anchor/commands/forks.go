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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listForksLong = cli.LongDesc(`
		List the forks recorded in the registry, in creation order.
	`)

	listForksExample = cli.Examples(`
		# List the forks
		{{.Software}} forks

		# List the forks as JSON
		{{.Software}} forks --output json
	`)
)

type ListForksHandler func() (*ListForksResponse, error)

func NewCmdListForks(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func() (*ListForksResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return ListForks(rt)
	}

	return BuildCmdListForks(w, h, rf)
}

func BuildCmdListForks(w io.Writer, handler ListForksHandler, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "forks",
		Short:   "List the forks",
		Long:    listForksLong,
		Example: listForksExample,
		Args:    requireArgs(),
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := handler()
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintListForksResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	return cmd
}

type ListForksResponse struct {
	Forks []forks.Fork `json:"forks"`
}

func ListForks(rt *Runtime) (*ListForksResponse, error) {
	all := rt.ForkManager().All()
	if all == nil {
		all = []forks.Fork{}
	}
	return &ListForksResponse{
		Forks: all,
	}, nil
}

func PrintListForksResponse(w io.Writer, resp *ListForksResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	if len(resp.Forks) == 0 {
		str.InfoText("No active forks").NextLine()
		return
	}

	str.Text("Active forks:").NextSection()
	for _, fork := range resp.Forks {
		str.Bold(fork.ID).Text(fmt.Sprintf(" (%s, started %s)", fork.Network.Name(), humanize.Time(fork.CreatedAt))).NextLine()
		printFork(str, fork)
		str.NextLine()
	}
}
