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

	"code.vegaprotocol.io/anchor/checkpoints"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"

	"github.com/spf13/cobra"
)

var (
	restoreLong = cli.LongDesc(`
		Load the state of a checkpoint into a fork.

		The fork must run the network the checkpoint was taken from. The
		checkpoint is left untouched and can be restored again.
	`)

	restoreExample = cli.Examples(`
		# Restore a checkpoint into a fork
		{{.Software}} restore FORK_ID CHECKPOINT_ID --session SESSION
	`)
)

type RestoreHandler func(context.Context, *RestoreFlags) (*RestoreResponse, error)

func NewCmdRestore(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context, f *RestoreFlags) (*RestoreResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return RestoreCheckpoint(ctx, rt, f)
	}

	return BuildCmdRestore(w, h, rf)
}

func BuildCmdRestore(w io.Writer, handler RestoreHandler, rf *RootFlags) *cobra.Command {
	f := &RestoreFlags{}

	cmd := &cobra.Command{
		Use:     "restore FORK_ID CHECKPOINT_ID",
		Short:   "Restore a checkpoint into a fork",
		Long:    restoreLong,
		Example: restoreExample,
		Args:    requireArgs("fork", "checkpoint"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ForkID = args[0]
			f.CheckpointID = args[1]

			if err := f.Validate(); err != nil {
				return err
			}

			resp, err := handler(cmd.Context(), f)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintRestoreResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&f.Session,
		"session", "s",
		"",
		"Session the checkpoint belongs to",
	)

	return cmd
}

type RestoreFlags struct {
	ForkID       string
	CheckpointID string
	Session      string
}

func (f *RestoreFlags) Validate() error {
	if len(f.Session) == 0 {
		return flags.MustBeSpecifiedError("session")
	}
	return nil
}

type RestoreResponse struct {
	ForkID     string                 `json:"forkId"`
	Checkpoint checkpoints.Checkpoint `json:"checkpoint"`
}

func RestoreCheckpoint(ctx context.Context, rt *Runtime, f *RestoreFlags) (*RestoreResponse, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	fork, err := rt.Fork(f.ForkID)
	if err != nil {
		return nil, err
	}

	client, err := rt.DialFork(ctx, fork)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	m, err := rt.CheckpointManager(f.Session, fork, client)
	if err != nil {
		return nil, err
	}

	checkpoint, err := m.Restore(ctx, f.CheckpointID)
	if err != nil {
		return nil, fmt.Errorf("couldn't restore the checkpoint: %w", err)
	}

	return &RestoreResponse{
		ForkID:     fork.ID,
		Checkpoint: checkpoint,
	}, nil
}

func PrintRestoreResponse(w io.Writer, resp *RestoreResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().Text("Fork ").Bold(resp.ForkID).Text(" restored from checkpoint ").Bold(resp.Checkpoint.ID).NextLine()
	printCheckpoint(str, resp.Checkpoint)
}
