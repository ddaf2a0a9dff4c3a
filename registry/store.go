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

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	vgfs "code.vegaprotocol.io/anchor/libs/fs"
	"code.vegaprotocol.io/anchor/logging"
	"code.vegaprotocol.io/anchor/types"

	"github.com/gofrs/flock"
)

const (
	namedLogger = "registry"
	lockFileExt = ".lock"
)

// Store loads and persists one registry document. Every write replaces the
// whole document through an atomic rename, so readers never see a partial
// registry.
type Store[T any] struct {
	log  *logging.Logger
	cfg  Config
	path string
}

func NewStore[T any](log *logging.Logger, cfg Config, path string) *Store[T] {
	return &Store[T]{
		log:  log.Named(namedLogger).With(logging.String("path", path)),
		cfg:  cfg,
		path: path,
	}
}

func (s *Store[T]) Path() string {
	return s.path
}

// Load reads the registry. A missing document is an empty registry.
func (s *Store[T]) Load() (*Collection[T], error) {
	exists, err := vgfs.FileExists(s.path)
	if err != nil {
		return nil, fmt.Errorf("couldn't verify registry %s exists: %w: %w", s.path, types.ErrIO, err)
	}
	if !exists {
		return NewCollection[T](), nil
	}

	buf, err := vgfs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read registry %s: %w: %w", s.path, types.ErrIO, err)
	}

	c := NewCollection[T]()
	if len(buf) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("couldn't parse registry %s: %w: %w", s.path, types.ErrMalformedRegistry, err)
	}
	return c, nil
}

// Persist rewrites the full registry.
func (s *Store[T]) Persist(c *Collection[T]) error {
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("couldn't serialise registry %s: %w: %w", s.path, types.ErrIO, err)
	}

	if err := vgfs.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("couldn't create registry folder: %w: %w", types.ErrIO, err)
	}

	n, err := vgfs.WriteFileAtomic(s.path, buf)
	if err != nil {
		return fmt.Errorf("couldn't persist registry %s: %w: %w", s.path, types.ErrIO, err)
	}

	s.log.Debug("registry persisted",
		logging.Int("records", c.Len()),
		logging.Int64("bytes", n),
	)
	return nil
}

// Update runs a load, mutate, persist cycle while holding an advisory lock
// on the registry, so concurrent anchor processes cannot lose each other's
// writes. The document is persisted only when fn succeeds. The collection
// as persisted is returned.
func (s *Store[T]) Update(ctx context.Context, fn func(*Collection[T]) error) (*Collection[T], error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.Load()
	if err != nil {
		if !errors.Is(err, types.ErrMalformedRegistry) {
			return nil, err
		}
		s.log.Warn("registry is malformed, starting from an empty one", logging.Error(err))
		c = NewCollection[T]()
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := s.Persist(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes the registry document. Removing a missing registry is not
// an error.
func (s *Store[T]) Remove(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	for _, path := range []string{s.path, s.path + lockFileExt} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("couldn't remove registry file %s: %w: %w", path, types.ErrIO, err)
		}
	}
	return nil
}

func (s *Store[T]) lock(ctx context.Context) (func(), error) {
	if err := vgfs.EnsureDir(filepath.Dir(s.path)); err != nil {
		return nil, fmt.Errorf("couldn't create registry folder: %w: %w", types.ErrIO, err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout.Get())
	defer cancel()

	fileLock := flock.New(s.path + lockFileExt)
	locked, err := fileLock.TryLockContext(lockCtx, s.cfg.LockRetryDelay.Get())
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("couldn't lock registry %s: %w: %w", s.path, types.ErrIO, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", s.path, types.ErrRegistryLocked)
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			s.log.Warn("couldn't release registry lock", logging.Error(err))
		}
	}, nil
}
