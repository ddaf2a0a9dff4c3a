//go:build unix

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

package forks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"code.vegaprotocol.io/anchor/logging"

	"golang.org/x/sys/unix"
)

const (
	livenessPollInterval = 50 * time.Millisecond
	killTimeout          = 2 * time.Second
)

// OSProcessController runs node processes in their own process group so
// they outlive the anchor command that started them.
type OSProcessController struct {
	log *logging.Logger
}

func NewOSProcessController(log *logging.Logger) *OSProcessController {
	return &OSProcessController{
		log: log.Named("process"),
	}
}

func (c *OSProcessController) Start(spec NodeSpec) (NodeProcess, error) {
	binPath, err := exec.LookPath(spec.Binary)
	if err != nil {
		return NodeProcess{}, fmt.Errorf("failed to locate binary %s: %w", spec.Binary, err)
	}

	cmd := exec.Command(binPath, spec.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var logFile *os.File
	if spec.LogFile != "" {
		logFile, err = os.OpenFile(spec.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return NodeProcess{}, fmt.Errorf("couldn't open node log file %s: %w", spec.LogFile, err)
		}
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	c.log.Debug("Starting binary",
		logging.String("binaryPath", binPath),
		logging.Strings("args", spec.Args),
	)

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return NodeProcess{}, fmt.Errorf("failed to execute binary %s %v: %w", binPath, spec.Args, err)
	}

	exited := make(chan struct{})
	go func() {
		err := cmd.Wait()
		c.log.Debug("Binary exited",
			logging.String("binaryPath", binPath),
			logging.Int("pid", cmd.Process.Pid),
			logging.Error(err),
		)
		if logFile != nil {
			_ = logFile.Close()
		}
		close(exited)
	}()

	return NodeProcess{
		PID:    cmd.Process.Pid,
		Exited: exited,
	}, nil
}

// Stop sends SIGTERM to the process group of pid, then SIGKILL once grace
// elapses. The pid is trusted as recorded: if the node died and the system
// recycled its pid, the signals reach whatever process now holds it.
func (c *OSProcessController) Stop(ctx context.Context, pid int, grace time.Duration) error {
	if pid <= 0 || !isAlive(pid) {
		c.log.Debug("Process already exited", logging.Int("pid", pid))
		return nil
	}

	c.log.Debug("Signaling process", logging.Int("pid", pid), logging.String("signal", unix.SIGTERM.String()))
	if gone, err := signalProcess(pid, unix.SIGTERM); err != nil {
		return err
	} else if gone {
		return nil
	}

	if waitForExit(ctx, pid, grace) {
		return nil
	}

	c.log.Debug("Signaling process", logging.Int("pid", pid), logging.String("signal", unix.SIGKILL.String()))
	if gone, err := signalProcess(pid, unix.SIGKILL); err != nil {
		return err
	} else if gone {
		return nil
	}

	if waitForExit(context.Background(), pid, killTimeout) {
		return nil
	}
	return fmt.Errorf("process %d is still alive after SIGKILL", pid)
}

// signalProcess targets the process group first, so helpers spawned by the node go
// down with it. It reports whether the process is already gone.
func signalProcess(pid int, sig unix.Signal) (bool, error) {
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		err = unix.Kill(pid, sig)
	}
	if errors.Is(err, unix.ESRCH) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("couldn't send %s to process %d: %w", sig, pid, err)
	}
	return false, nil
}

func waitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(livenessPollInterval)
	defer ticker.Stop()

	for {
		if !isAlive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !isAlive(pid)
		case <-ticker.C:
		}
	}
}

func isAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
