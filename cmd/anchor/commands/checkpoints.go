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

	"code.vegaprotocol.io/anchor/checkpoints"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	"code.vegaprotocol.io/anchor/forks"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listCheckpointsLong = cli.LongDesc(`
		List the checkpoints of a session, in creation order.

		The state file of every checkpoint is verified. The listing fails when one
		of them is missing or truncated.
	`)

	listCheckpointsExample = cli.Examples(`
		# List the checkpoints of a session
		{{.Software}} checkpoints SESSION
	`)
)

type ListCheckpointsHandler func(sessionID string) (*ListCheckpointsResponse, error)

func NewCmdListCheckpoints(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(sessionID string) (*ListCheckpointsResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return ListCheckpoints(rt, sessionID)
	}

	return BuildCmdListCheckpoints(w, h, rf)
}

func BuildCmdListCheckpoints(w io.Writer, handler ListCheckpointsHandler, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checkpoints SESSION",
		Short:   "List the checkpoints of a session",
		Long:    listCheckpointsLong,
		Example: listCheckpointsExample,
		Args:    requireArgs("session"),
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := handler(args[0])
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintListCheckpointsResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	return cmd
}

type ListCheckpointsResponse struct {
	SessionID   string                   `json:"sessionId"`
	Checkpoints []checkpoints.Checkpoint `json:"checkpoints"`
}

func ListCheckpoints(rt *Runtime, sessionID string) (*ListCheckpointsResponse, error) {
	m, err := rt.CheckpointManager(sessionID, forks.Fork{}, nil)
	if err != nil {
		return nil, err
	}

	list, err := m.List()
	if err != nil {
		return nil, fmt.Errorf("couldn't list the checkpoints: %w", err)
	}
	if list == nil {
		list = []checkpoints.Checkpoint{}
	}

	return &ListCheckpointsResponse{
		SessionID:   sessionID,
		Checkpoints: list,
	}, nil
}

func PrintListCheckpointsResponse(w io.Writer, resp *ListCheckpointsResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	if len(resp.Checkpoints) == 0 {
		str.InfoText(fmt.Sprintf("No checkpoints for session %s", resp.SessionID)).NextLine()
		return
	}

	str.Text(fmt.Sprintf("Checkpoints for session %s:", resp.SessionID)).NextSection()
	for _, checkpoint := range resp.Checkpoints {
		str.Bold(checkpoint.ID).Text(fmt.Sprintf(" (saved %s)", humanize.Time(checkpoint.CreatedAt))).NextLine()
		printCheckpoint(str, checkpoint)
		str.NextLine()
	}
}
