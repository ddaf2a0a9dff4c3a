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

	"github.com/spf13/cobra"
)

var (
	envLong = cli.LongDesc(`
		Print the environment variables pointing tools at a fork.

		With --export, the variables are printed as shell export statements, so
		they can be evaluated by the shell.
	`)

	envExample = cli.Examples(`
		# Print the variables of a fork
		{{.Software}} env FORK_ID

		# Export the variables of a fork to the current shell
		eval "$({{.Software}} env FORK_ID --export)"
	`)
)

type EnvHandler func(*EnvFlags) (*EnvResponse, error)

func NewCmdEnv(w io.Writer, rf *RootFlags) *cobra.Command {
	h := func(f *EnvFlags) (*EnvResponse, error) {
		rt, err := NewRuntime(rf, os.Stderr)
		if err != nil {
			return nil, err
		}
		defer rt.Close()

		return DescribeEnv(rt, f)
	}

	return BuildCmdEnv(w, h, rf)
}

func BuildCmdEnv(w io.Writer, handler EnvHandler, rf *RootFlags) *cobra.Command {
	f := &EnvFlags{}

	cmd := &cobra.Command{
		Use:     "env FORK_ID",
		Short:   "Print the environment variables of a fork",
		Long:    envLong,
		Example: envExample,
		Args:    requireArgs("fork"),
		RunE: func(_ *cobra.Command, args []string) error {
			f.ForkID = args[0]

			resp, err := handler(f)
			if err != nil {
				return err
			}

			switch rf.Output {
			case flags.HumanOutput:
				PrintEnvResponse(w, resp)
			case flags.JSONOutput:
				return printer.FprintJSON(w, resp)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&f.Export,
		"export",
		false,
		"Print the variables as shell export statements",
	)

	return cmd
}

type EnvFlags struct {
	ForkID string
	Export bool
}

type EnvVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type EnvResponse struct {
	ForkID    string        `json:"forkId"`
	Export    bool          `json:"-"`
	Variables []EnvVariable `json:"variables"`
}

func DescribeEnv(rt *Runtime, f *EnvFlags) (*EnvResponse, error) {
	fork, err := rt.Fork(f.ForkID)
	if err != nil {
		return nil, err
	}

	env := fork.Env()
	variables := make([]EnvVariable, 0, len(env))
	for _, v := range env {
		variables = append(variables, EnvVariable{Name: v[0], Value: v[1]})
	}

	return &EnvResponse{
		ForkID:    fork.ID,
		Export:    f.Export,
		Variables: variables,
	}, nil
}

// PrintEnvResponse prints plain text only, so the output can be evaluated
// by a shell.
func PrintEnvResponse(w io.Writer, resp *EnvResponse) {
	for _, v := range resp.Variables {
		if resp.Export {
			_, _ = fmt.Fprintf(w, "export %s=%q\n", v.Name, v.Value)
		} else {
			_, _ = fmt.Fprintf(w, "%s=%s\n", v.Name, v.Value)
		}
	}
}
