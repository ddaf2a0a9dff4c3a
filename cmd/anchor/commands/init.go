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
	"code.vegaprotocol.io/anchor/config"
	"code.vegaprotocol.io/anchor/paths"

	"github.com/spf13/cobra"
)

var (
	initLong = cli.LongDesc(`
		Creates the folders and the default configuration file of the anchor home.

		The configuration file is optional: every command runs with the default
		configuration when it is missing.
	`)

	initExample = cli.Examples(`
		# Initialise the home
		{{.Software}} init

		# Reset the configuration file to its defaults
		{{.Software}} init --force
	`)
)

type InitHandler func(home string, f *InitFlags) (*InitResponse, error)

func NewCmdInit(w io.Writer, rf *RootFlags) *cobra.Command {
	return BuildCmdInit(w, Init, rf)
}

func BuildCmdInit(w io.Writer, handler InitHandler, rf *RootFlags) *cobra.Command {
	f := &InitFlags{}

	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Initialise the anchor home",
		Long:    initLong,
		Example: initExample,
		Args:    requireArgs(),
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := handler(rf.Home, f)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintInitResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&f.Force,
		"force", "f",
		false,
		"Overwrite the existing configuration file",
	)

	return cmd
}

type InitFlags struct {
	Force bool
}

type InitResponse struct {
	Home           string            `json:"home"`
	ConfigFilePath string            `json:"configFilePath"`
	Paths          map[string]string `json:"paths"`
}

func Init(home string, f *InitFlags) (*InitResponse, error) {
	p := paths.New(home)

	if err := p.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("couldn't create the anchor home: %w", err)
	}

	if err := config.Write(p.ConfigFile(), config.NewDefaultConfig(), f.Force); err != nil {
		return nil, fmt.Errorf("couldn't initialise the configuration: %w", err)
	}

	return &InitResponse{
		Home:           p.Home(),
		ConfigFilePath: p.ConfigFile(),
		Paths:          p.List(),
	}, nil
}

func PrintInitResponse(w io.Writer, resp *InitResponse) {
	p := printer.NewInteractivePrinter(w)

	str := p.String()
	defer p.Print(str)

	str.CheckMark().Text("Anchor home created at: ").SuccessText(resp.Home).NextLine()
	str.CheckMark().Text("Configuration file created at: ").SuccessText(resp.ConfigFilePath).NextLine()
	str.CheckMark().SuccessText("Initialisation succeeded").NextSection()

	str.BlueArrow().InfoText("Fork a network").NextLine()
	str.Text("To start a local fork of mainnet, use the following command:").NextSection()
	str.Code(fmt.Sprintf("%s fork --network mainnet", os.Args[0])).NextSection()
	str.Text("For more information, use ").Bold("--help").Text(" flag.").NextLine()
}
