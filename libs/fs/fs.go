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

package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrIsADirectory = errors.New("is a directory")

// EnsureDir creates the directory, and its parents, with user-only access.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// PathExists reports whether something, file or directory, exists at path.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("couldn't check if %q path exists: %w", path, err)
}

// FileExists reports whether a regular file exists at path. It fails when
// the path points to a directory.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("couldn't check if %q file exists: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s: %w", path, ErrIsADirectory)
	}
	return true, nil
}

func ReadFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path. Readers either see the previous content or the new
// one, never a partial write. It returns the number of bytes written.
func WriteFileAtomic(path string, data []byte) (int64, error) {
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteAtomic is the streaming form of WriteFileAtomic. On any failure the
// temporary file is removed and path is left untouched.
func WriteAtomic(path string, write func(io.Writer) error) (n int64, err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("couldn't create temporary file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	cw := &countWriter{w: tmp}
	if err = write(cw); err != nil {
		return 0, fmt.Errorf("couldn't write temporary file %s: %w", tmpPath, err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		return 0, fmt.Errorf("couldn't set permissions on %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return 0, fmt.Errorf("couldn't sync temporary file %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("couldn't close temporary file %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("couldn't move %s to %s: %w", tmpPath, path, err)
	}

	syncDir(dir)

	return cw.count, nil
}

// syncDir makes the rename durable. Not every platform allows syncing a
// directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

type countWriter struct {
	count int64
	w     io.Writer
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	return n, err
}
