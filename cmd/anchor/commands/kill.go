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
	"fmt"
	"io"
	"os"

	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	"code.vegaprotocol.io/anchor/types"

	"github.com/spf13/cobra"
)

var (
	killLong = cli.LongDesc(`
		Stop the node behind a fork and remove the fork from the registry.

		The snapshots of the fork are removed with it. Checkpoints are kept: they
		belong to their session and can be restored into another fork.
	`)

	killExample = cli.Examples(`
		# Kill a fork
		{{.Software}} kill FORK_ID
	`)
)

type KillHandler func(ctx context.Context, forkID string) (*KillResponse, error)

func NewCmdKill(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context, forkID string) (*KillResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return KillFork(ctx, rt, forkID)
	}

	return BuildCmdKill(w, h, rf)
}

func BuildCmdKill(w io.Writer, handler KillHandler, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "kill FORK_ID",
		Short:   "Kill a fork",
		Long:    killLong,
		Example: killExample,
		Args:    requireArgs("fork"),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := handler(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintKillResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	return cmd
}

type KillResponse struct {
	ForkID string `json:"forkId"`
}

func KillFork(ctx context.Context, rt *Runtime, forkID string) (*KillResponse, error) {
	if err := types.ValidateIdentifier("fork", forkID); err != nil {
		return nil, err
	}

	if err := rt.ForkManager().Kill(ctx, forkID); err != nil {
		return nil, fmt.Errorf("couldn't kill the fork: %w", err)
	}

	return &KillResponse{
		ForkID: forkID,
	}, nil
}

func PrintKillResponse(w io.Writer, resp *KillResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().Text("Fork ").Bold(resp.ForkID).Text(" terminated").NextLine()
}
