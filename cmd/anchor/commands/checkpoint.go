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
	"strconv"

	"code.vegaprotocol.io/anchor/checkpoints"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	checkpointLong = cli.LongDesc(`
		Save the full state of a fork to disk.

		A checkpoint belongs to a session. It outlives the fork it was taken from
		and can be restored into any fork of the same network.
	`)

	checkpointExample = cli.Examples(`
		# Save a checkpoint of a fork
		{{.Software}} checkpoint FORK_ID --session SESSION

		# Save a checkpoint with a description
		{{.Software}} checkpoint FORK_ID --session SESSION --description "pool seeded"
	`)
)

type CheckpointHandler func(context.Context, *CheckpointFlags) (*CheckpointResponse, error)

func NewCmdCheckpoint(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context, f *CheckpointFlags) (*CheckpointResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return SaveCheckpoint(ctx, rt, f)
	}

	return BuildCmdCheckpoint(w, h, rf)
}

func BuildCmdCheckpoint(w io.Writer, handler CheckpointHandler, rf *RootFlags) *cobra.Command {
	f := &CheckpointFlags{}

	cmd := &cobra.Command{
		Use:     "checkpoint FORK_ID",
		Short:   "Save a checkpoint of a fork",
		Long:    checkpointLong,
		Example: checkpointExample,
		Args:    requireArgs("fork"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ForkID = args[0]

			if err := f.Validate(); err != nil {
				return err
			}

			resp, err := handler(cmd.Context(), f)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintCheckpointResponse(w, resp)
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
	cmd.Flags().StringVarP(&f.Description,
		"description", "d",
		"",
		"Description of the checkpoint",
	)

	return cmd
}

type CheckpointFlags struct {
	ForkID      string
	Session     string
	Description string
}

func (f *CheckpointFlags) Validate() error {
	if len(f.Session) == 0 {
		return flags.MustBeSpecifiedError("session")
	}
	return nil
}

type CheckpointResponse struct {
	Checkpoint checkpoints.Checkpoint `json:"checkpoint"`
}

func SaveCheckpoint(ctx context.Context, rt *Runtime, f *CheckpointFlags) (*CheckpointResponse, error) {
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

	checkpoint, err := m.Save(ctx, f.Description)
	if err != nil {
		return nil, fmt.Errorf("couldn't save the checkpoint: %w", err)
	}

	return &CheckpointResponse{
		Checkpoint: checkpoint,
	}, nil
}

func PrintCheckpointResponse(w io.Writer, resp *CheckpointResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().SuccessText("Checkpoint saved").NextLine()
	printCheckpoint(str, resp.Checkpoint)
}

func printCheckpoint(str *printer.FormattedString, checkpoint checkpoints.Checkpoint) {
	str.Field("ID", checkpoint.ID)
	str.Field("Fork", checkpoint.ForkID)
	str.Field("Session", checkpoint.SessionID)
	str.Field("Network", checkpoint.Network.Name())
	str.Field("Block", strconv.FormatUint(checkpoint.BlockNumber, 10))
	str.Field("Size", humanize.IBytes(uint64(checkpoint.SizeBytes)))
	if len(checkpoint.Description) > 0 {
		str.Field("Description", checkpoint.Description)
	}
}
