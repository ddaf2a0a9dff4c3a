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
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"code.vegaprotocol.io/anchor/cmd/anchor/commands/flags"
	"code.vegaprotocol.io/anchor/cmd/anchor/commands/printer"
	vgterm "code.vegaprotocol.io/anchor/libs/term"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/types"

	"github.com/spf13/cobra"
)

const (
	// ExitCodeSchema is returned on invalid input and unknown records.
	ExitCodeSchema = 6
	// ExitCodeFailure is returned on every other failure.
	ExitCodeFailure = 4

	homeEnvVar     = "ANCHOR_HOME"
	registryEnvVar = "ANCHOR_REGISTRY"
)

type Error struct {
	Err  string `json:"error"`
	Kind string `json:"kind"`
}

type Writer struct {
	Out io.Writer
	Err io.Writer
}

type RootFlags struct {
	Home     string
	Registry string
	Output   string
	LogLevel string
	Zone     string
}

func Execute(w *Writer) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rf := &RootFlags{}
	c := BuildCmdRoot(w.Out, rf)

	execErr := c.ExecuteContext(ctx)
	cancel()
	if execErr == nil {
		return
	}

	defer os.Exit(ExitCode(execErr))

	if errors.Is(execErr, flags.ErrUnsupportedOutput) {
		_, _ = fmt.Fprintln(w.Err, execErr)
		return
	}

	switch rf.Output {
	case flags.JSONOutput:
		fprintErrorJSON(w.Err, execErr)
	default:
		fprintErrorHuman(w, execErr)
	}
}

// ExitCode maps an error to the exit code of the process.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch types.KindOf(err) {
	case types.KindSchema, types.KindNotFound:
		return ExitCodeSchema
	default:
		return ExitCodeFailure
	}
}

func NewCmdRoot(w io.Writer) *cobra.Command {
	return BuildCmdRoot(w, &RootFlags{})
}

func BuildCmdRoot(w io.Writer, rf *RootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           os.Args[0],
		Short:         "Manage pinned local forks of blockchain networks",
		Long:          "Create local forks of blockchain networks pinned at a block, and capture their state with snapshots and checkpoints.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rf.Output == "interactive" {
				rf.Output = flags.HumanOutput
			}
			if err := flags.ValidateOutput(rf.Output); err != nil {
				return err
			}
			if len(rf.Home) == 0 {
				rf.Home = os.Getenv(homeEnvVar)
			}
			if len(rf.Registry) == 0 {
				rf.Registry = os.Getenv(registryEnvVar)
			}
			if len(rf.LogLevel) > 0 {
				if _, err := logging.ParseLevel(rf.LogLevel); err != nil {
					return flags.InvalidFormatError("log-level", err.Error())
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&rf.Home,
		"home",
		"",
		fmt.Sprintf("Specify the location of the anchor home (defaults to $%s, then to the XDG data directory)", homeEnvVar),
	)
	cmd.PersistentFlags().StringVar(&rf.Registry,
		"registry",
		"",
		fmt.Sprintf("Specify the location of the fork registry file (defaults to $%s, then to registry.json in the home)", registryEnvVar),
	)
	cmd.PersistentFlags().StringVarP(&rf.Output,
		"output", "o",
		flags.HumanOutput,
		fmt.Sprintf("Specify the output format: %v", flags.AvailableOutputs),
	)
	cmd.PersistentFlags().StringVar(&rf.LogLevel,
		"log-level",
		"",
		fmt.Sprintf("Override the log level of the configuration file: %v", logging.SupportedLevels),
	)
	cmd.PersistentFlags().StringVarP(&rf.Zone,
		"zone", "z",
		string(StandardZone),
		fmt.Sprintf("Set the zone of the operations: %v", SupportedZones),
	)

	autoCompleteLogLevel(cmd)
	autoCompleteZone(cmd)

	cmd.AddCommand(
		NewCmdInit(w, rf),
		NewCmdFork(w, rf),
		NewCmdListForks(w, rf),
		NewCmdKill(w, rf),
		NewCmdKillAll(w, rf),
		NewCmdEnv(w, rf),
		NewCmdSnapshot(w, rf),
		NewCmdListSnapshots(w, rf),
		NewCmdRevert(w, rf),
		NewCmdCheckpoint(w, rf),
		NewCmdListCheckpoints(w, rf),
		NewCmdRestore(w, rf),
		NewCmdStatus(w, rf),
		NewCmdVersion(w, rf),
	)

	return cmd
}

func fprintErrorHuman(w *Writer, execErr error) {
	if vgterm.HasTTY() {
		p := printer.NewInteractivePrinter(w.Out)
		p.Print(p.String().CrossMark().DangerText("Error: ").DangerText(execErr.Error()).NextLine())
	} else {
		_, _ = fmt.Fprintln(w.Err, execErr)
	}
}

func fprintErrorJSON(w io.Writer, err error) {
	jsonErr := printer.FprintJSON(w, Error{
		Err:  err.Error(),
		Kind: types.KindOf(err).String(),
	})
	if jsonErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "couldn't format error as JSON: %v\n", jsonErr)
		_, _ = fmt.Fprintf(os.Stderr, "original error: %v\n", err)
	}
}

func autoCompleteLogLevel(cmd *cobra.Command) {
	err := cmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return logging.SupportedLevels, cobra.ShellCompDirectiveDefault
	})
	if err != nil {
		panic(err)
	}
}

func autoCompleteZone(cmd *cobra.Command) {
	err := cmd.RegisterFlagCompletionFunc("zone", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return SupportedZones, cobra.ShellCompDirectiveDefault
	})
	if err != nil {
		panic(err)
	}
}

// requireArgs validates the positional arguments against their names.
func requireArgs(names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < len(names) {
			return flags.ArgMustBeSpecified(names[len(args)])
		}
		if len(args) > len(names) {
			return flags.TooManyArgsError{Expected: len(names), Got: len(args)}
		}
		for i, name := range names {
			if len(args[i]) == 0 {
				return flags.ArgMustBeSpecified(name)
			}
		}
		return nil
	}
}
