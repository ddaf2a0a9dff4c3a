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
	"code.vegaprotocol.io/anchor/snapshots"
	"code.vegaprotocol.io/anchor/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listSnapshotsLong = cli.LongDesc(`
		List the snapshots of a fork, in creation order.
	`)

	listSnapshotsExample = cli.Examples(`
		# List the snapshots of a fork
		{{.Software}} snapshots FORK_ID

		# List the snapshots of a fork taken for a session
		{{.Software}} snapshots FORK_ID --session SESSION
	`)
)

type ListSnapshotsHandler func(*ListSnapshotsFlags) (*ListSnapshotsResponse, error)

func NewCmdListSnapshots(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(f *ListSnapshotsFlags) (*ListSnapshotsResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return ListSnapshots(rt, f)
	}

	return BuildCmdListSnapshots(w, h, rf)
}

func BuildCmdListSnapshots(w io.Writer, handler ListSnapshotsHandler, rf *RootFlags) *cobra.Command {
	f := &ListSnapshotsFlags{}

	cmd := &cobra.Command{
		Use:     "snapshots FORK_ID",
		Short:   "List the snapshots of a fork",
		Long:    listSnapshotsLong,
		Example: listSnapshotsExample,
		Args:    requireArgs("fork"),
		RunE: func(_ *cobra.Command, args []string) error {
			f.ForkID = args[0]

			resp, err := handler(f)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintListSnapshotsResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&f.Session,
		"session", "s",
		"",
		"Only list the snapshots of this session",
	)

	return cmd
}

type ListSnapshotsFlags struct {
	ForkID  string
	Session string
}

type ListSnapshotsResponse struct {
	ForkID    string               `json:"forkId"`
	Snapshots []snapshots.Snapshot `json:"snapshots"`
}

func ListSnapshots(rt *Runtime, f *ListSnapshotsFlags) (*ListSnapshotsResponse, error) {
	fork, err := rt.Fork(f.ForkID)
	if err != nil {
		return nil, err
	}

	if len(f.Session) > 0 {
		if err := types.ValidateIdentifier("session", f.Session); err != nil {
			return nil, err
		}
	}

	m := rt.SnapshotManager(fork, nil)

	var list []snapshots.Snapshot
	if len(f.Session) > 0 {
		list = m.ListBySession(f.Session)
	} else {
		list = m.List()
	}
	if list == nil {
		list = []snapshots.Snapshot{}
	}

	return &ListSnapshotsResponse{
		ForkID:    fork.ID,
		Snapshots: list,
	}, nil
}

func PrintListSnapshotsResponse(w io.Writer, resp *ListSnapshotsResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	if len(resp.Snapshots) == 0 {
		str.InfoText(fmt.Sprintf("No snapshots for fork %s", resp.ForkID)).NextLine()
		return
	}

	str.Text(fmt.Sprintf("Snapshots for fork %s:", resp.ForkID)).NextSection()
	for _, snapshot := range resp.Snapshots {
		str.Bold(snapshot.ID).Text(fmt.Sprintf(" (taken %s)", humanize.Time(snapshot.CreatedAt))).NextLine()
		printSnapshot(str, snapshot)
		str.NextLine()
	}
}
