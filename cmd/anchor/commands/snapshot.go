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

	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	"code.vegaprotocol.io/anchor/snapshots"

	"github.com/spf13/cobra"
)

var (
	snapshotLong = cli.LongDesc(`
		Capture the current state of a fork in its node's memory.

		A snapshot is cheap, but it only lives as long as the node: killing the
		fork discards its snapshots. Use a checkpoint to keep a state on disk.
	`)

	snapshotExample = cli.Examples(`
		# Snapshot a fork
		{{.Software}} snapshot FORK_ID

		# Snapshot a fork for a session, with a description
		{{.Software}} snapshot FORK_ID --session SESSION --description "before deposit"
	`)
)

type SnapshotHandler func(context.Context, *SnapshotFlags) (*SnapshotResponse, error)

func NewCmdSnapshot(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context, f *SnapshotFlags) (*SnapshotResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return CreateSnapshot(ctx, rt, f)
	}

	return BuildCmdSnapshot(w, h, rf)
}

func BuildCmdSnapshot(w io.Writer, handler SnapshotHandler, rf *RootFlags) *cobra.Command {
	f := &SnapshotFlags{}

	cmd := &cobra.Command{
		Use:     "snapshot FORK_ID",
		Short:   "Snapshot the state of a fork",
		Long:    snapshotLong,
		Example: snapshotExample,
		Args:    requireArgs("fork"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ForkID = args[0]

			resp, err := handler(cmd.Context(), f)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintSnapshotResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&f.Session,
		"session", "s",
		"",
		"Session to associate with the snapshot",
	)
	cmd.Flags().StringVarP(&f.Description,
		"description", "d",
		"",
		"Description of the snapshot",
	)

	return cmd
}

type SnapshotFlags struct {
	ForkID      string
	Session     string
	Description string
}

type SnapshotResponse struct {
	Snapshot snapshots.Snapshot `json:"snapshot"`
}

func CreateSnapshot(ctx context.Context, rt *Runtime, f *SnapshotFlags) (*SnapshotResponse, error) {
	fork, err := rt.Fork(f.ForkID)
	if err != nil {
		return nil, err
	}

	client, err := rt.DialFork(ctx, fork)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	snapshot, err := rt.SnapshotManager(fork, client).Create(ctx, snapshots.CreateRequest{
		SessionID:   f.Session,
		Description: f.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't snapshot the fork: %w", err)
	}

	return &SnapshotResponse{
		Snapshot: snapshot,
	}, nil
}

func PrintSnapshotResponse(w io.Writer, resp *SnapshotResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().SuccessText("Snapshot created").NextLine()
	printSnapshot(str, resp.Snapshot)
}

func printSnapshot(str *printer.FormattedString, snapshot snapshots.Snapshot) {
	str.Field("ID", snapshot.ID)
	str.Field("Fork", snapshot.ForkID)
	str.Field("Block", strconv.FormatUint(snapshot.BlockNumber, 10))
	if len(snapshot.SessionID) > 0 {
		str.Field("Session", snapshot.SessionID)
	}
	if len(snapshot.Description) > 0 {
		str.Field("Description", snapshot.Description)
	}
}
