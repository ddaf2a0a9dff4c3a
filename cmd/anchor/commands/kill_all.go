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
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	"code.vegaprotocol.io/anchor/forks"

	"github.com/spf13/cobra"
)

var (
	killAllLong = cli.LongDesc(`
		Kill every fork of the registry.

		Every fork is attempted, even when some of them cannot be stopped. The
		forks that could not be stopped stay in the registry and are reported.
	`)

	killAllExample = cli.Examples(`
		# Kill all the forks
		{{.Software}} kill-all
	`)
)

type KillAllHandler func(ctx context.Context) (*KillAllResponse, error)

func NewCmdKillAll(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context) (*KillAllResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return KillAllForks(ctx, rt)
	}

	return BuildCmdKillAll(w, h, rf)
}

func BuildCmdKillAll(w io.Writer, handler KillAllHandler, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "kill-all",
		Short:   "Kill all the forks",
		Long:    killAllLong,
		Example: killAllExample,
		Args:    requireArgs(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := handler(cmd.Context())
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintKillAllResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	return cmd
}

type KillAllResponse struct {
	Killed []string `json:"killed"`
}

func KillAllForks(ctx context.Context, rt *Runtime) (*KillAllResponse, error) {
	killed, err := rt.ForkManager().KillAll(ctx)
	if err != nil {
		var killErr *forks.KillAllError
		if errors.As(err, &killErr) {
			return nil, fmt.Errorf("killed %d fork(s), but %w", len(killed), err)
		}
		return nil, fmt.Errorf("couldn't kill the forks: %w", err)
	}

	if killed == nil {
		killed = []string{}
	}
	return &KillAllResponse{
		Killed: killed,
	}, nil
}

func PrintKillAllResponse(w io.Writer, resp *KillAllResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	if len(resp.Killed) == 0 {
		str.InfoText("No active forks").NextLine()
		return
	}

	str.CheckMark().Text(fmt.Sprintf("Terminated %d fork(s)", len(resp.Killed))).NextLine()
	for _, id := range resp.Killed {
		str.Pad().Text("- ").Text(id).NextLine()
	}
}
