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
	"strings"

	"code.vegaprotocol.io/anchor/cmd/anchor/commands/cli"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	"code.vegaprotocol.io/anchor/forks"
	"code.vegaprotocol.io/anchor/network"

	"github.com/spf13/cobra"
)

var (
	forkLong = cli.LongDesc(`
		Start a local node forking the specified network, pinned at a block.

		When no block is specified, the latest block of the upstream endpoint is
		used. When no port is specified, a free one is picked.

		The node keeps running in the background until it is killed.
	`)

	forkExample = cli.Examples(`
		# Fork mainnet at its latest block
		{{.Software}} fork

		# Fork base at a given block, on a given port
		{{.Software}} fork --network base --block 19000000 --port 8546

		# Fork sepolia for a session
		{{.Software}} fork --network sepolia --session SESSION
	`)
)

type ForkHandler func(context.Context, forks.ForkRequest) (*ForkResponse, error)

func NewCmdFork(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(ctx context.Context, req forks.ForkRequest) (*ForkResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return CreateFork(ctx, rt, req)
	}

	return BuildCmdFork(w, h, rf)
}

func BuildCmdFork(w io.Writer, handler ForkHandler, rf *RootFlags) *cobra.Command {
	f := &ForkFlags{}

	cmd := &cobra.Command{
		Use:     "fork",
		Short:   "Start a local fork of a network",
		Long:    forkLong,
		Example: forkExample,
		Args:    requireArgs(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.Validate()
			if err != nil {
				return err
			}

			resp, err := handler(cmd.Context(), req)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintForkResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&f.Network,
		"network", "n",
		network.Mainnet.Name(),
		fmt.Sprintf("Network to fork: %s", strings.Join(network.Names(), ", ")),
	)
	cmd.Flags().StringVarP(&f.Block,
		"block", "b",
		"",
		"Block to fork from (latest if not specified)",
	)
	cmd.Flags().StringVarP(&f.Port,
		"port", "p",
		"",
		"Port the node listens on (picked if not specified)",
	)
	cmd.Flags().StringVarP(&f.Session,
		"session", "s",
		"",
		"Session to associate with the fork",
	)

	autoCompleteNetwork(cmd)

	return cmd
}

type ForkFlags struct {
	Network string
	Block   string
	Port    string
	Session string
}

func (f *ForkFlags) Validate() (forks.ForkRequest, error) {
	req := forks.ForkRequest{
		SessionID: f.Session,
	}

	if len(f.Network) == 0 {
		return forks.ForkRequest{}, flags.MustBeSpecifiedError("network")
	}
	n, err := network.Parse(f.Network)
	if err != nil {
		return forks.ForkRequest{}, err
	}
	req.Network = n

	if len(f.Block) > 0 && !strings.EqualFold(f.Block, "latest") {
		block, err := strconv.ParseUint(f.Block, 10, 64)
		if err != nil {
			return forks.ForkRequest{}, flags.InvalidFormatError("block", "it should be a positive number or \"latest\"")
		}
		req.Block = &block
	}

	if len(f.Port) > 0 {
		port, err := strconv.Atoi(f.Port)
		if err != nil || port < 1 || port > 65535 {
			return forks.ForkRequest{}, flags.InvalidFormatError("port", "it should be a number between 1 and 65535")
		}
		req.Port = &port
	}

	return req, nil
}

type ForkResponse struct {
	Fork forks.Fork `json:"fork"`
	Zone Zone       `json:"zone"`
}

func CreateFork(ctx context.Context, rt *Runtime, req forks.ForkRequest) (*ForkResponse, error) {
	fork, err := rt.ForkManager().Fork(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("couldn't create the fork: %w", err)
	}

	return &ForkResponse{
		Fork: fork,
		Zone: rt.Zone,
	}, nil
}

func PrintForkResponse(w io.Writer, resp *ForkResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().SuccessText("Fork created").NextLine()
	printFork(str, resp.Fork)
	str.Field("Zone", resp.Zone.String())
	str.NextLine()

	str.BlueArrow().InfoText("Target the fork").NextLine()
	str.Text("To export the fork settings to your shell, use the following command:").NextSection()
	str.Code(fmt.Sprintf("eval \"$(%s env %s --export)\"", os.Args[0], resp.Fork.ID)).NextLine()
}

func printFork(str *printer.FormattedString, fork forks.Fork) {
	str.Field("ID", fork.ID)
	str.Field("Network", fmt.Sprintf("%s (chain ID: %d)", fork.Network.Name(), fork.ChainID))
	str.Field("RPC URL", fork.RPCURL)
	str.Field("Block", strconv.FormatUint(fork.BlockNumber, 10))
	str.Field("Port", strconv.Itoa(fork.Port))
	str.Field("PID", strconv.Itoa(fork.PID))
	if len(fork.SessionID) > 0 {
		str.Field("Session", fork.SessionID)
	}
}

func autoCompleteNetwork(cmd *cobra.Command) {
	err := cmd.RegisterFlagCompletionFunc("network", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return network.Names(), cobra.ShellCompDirectiveDefault
	})
	if err != nil {
		panic(err)
	}
}
