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

	"github.com/spf13/cobra"
)

var (
	revertLong = cli.LongDesc(`
		Revert a fork to a snapshot.

		The snapshot, and every snapshot taken after it, are consumed by the
		revert. Take a new snapshot to be able to return to the reverted state.
	`)

	revertExample = cli.Examples(`
		# Revert a fork to a snapshot
		{{.Software}} revert FORK_ID SNAPSHOT_ID
	`)
)

type RevertHandler func(ctx context.Context, f *RevertFlags) (*RevertResponse, error)

func NewCmdRevert(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context, f *RevertFlags) (*RevertResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return RevertSnapshot(ctx, rt, f)
	}

	return BuildCmdRevert(w, h, rf)
}

func BuildCmdRevert(w io.Writer, handler RevertHandler, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "revert FORK_ID SNAPSHOT_ID",
		Short:   "Revert a fork to a snapshot",
		Long:    revertLong,
		Example: revertExample,
		Args:    requireArgs("fork", "snapshot"),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := handler(cmd.Context(), &RevertFlags{
				ForkID:     args[0],
				SnapshotID: args[1],
			})
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintRevertResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	return cmd
}

type RevertFlags struct {
	ForkID     string
	SnapshotID string
}

type RevertResponse struct {
	ForkID      string `json:"forkId"`
	SnapshotID  string `json:"snapshotId"`
	BlockNumber uint64 `json:"blockNumber"`
}

func RevertSnapshot(ctx context.Context, rt *Runtime, f *RevertFlags) (*RevertResponse, error) {
	fork, err := rt.Fork(f.ForkID)
	if err != nil {
		return nil, err
	}

	client, err := rt.DialFork(ctx, fork)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	m := rt.SnapshotManager(fork, client)
	snapshot, _ := m.Get(f.SnapshotID)

	if err := m.Revert(ctx, f.SnapshotID); err != nil {
		return nil, fmt.Errorf("couldn't revert the fork: %w", err)
	}

	return &RevertResponse{
		ForkID:      fork.ID,
		SnapshotID:  f.SnapshotID,
		BlockNumber: snapshot.BlockNumber,
	}, nil
}

func PrintRevertResponse(w io.Writer, resp *RevertResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().Text("Fork ").Bold(resp.ForkID).Text(" reverted to snapshot ").Bold(resp.SnapshotID).
		Text(fmt.Sprintf(" (block %d)", resp.BlockNumber)).NextLine()
}
