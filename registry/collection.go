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
	"encoding/json"
	"fmt"

	"code.vegaprotocol.io/anchor/types"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Collection is a keyed set of records that remembers insertion order. The
// JSON document keeps that order, so the order records were created in
// survives a persist/load cycle.
type Collection[T any] struct {
	entries *orderedmap.OrderedMap[string, T]
}

func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{
		entries: orderedmap.New[string, T](),
	}
}

// Append adds a record at the end of the collection. Ids are never
// overwritten.
func (c *Collection[T]) Append(id string, record T) error {
	if _, ok := c.entries.Get(id); ok {
		return fmt.Errorf("%q: %w", id, types.ErrDuplicateID)
	}
	c.entries.Set(id, record)
	return nil
}

func (c *Collection[T]) Get(id string) (T, bool) {
	return c.entries.Get(id)
}

func (c *Collection[T]) Has(id string) bool {
	_, ok := c.entries.Get(id)
	return ok
}

// Delete removes the record and reports whether it was present.
func (c *Collection[T]) Delete(id string) bool {
	_, ok := c.entries.Delete(id)
	return ok
}

func (c *Collection[T]) Len() int {
	return c.entries.Len()
}

func (c *Collection[T]) IDs() []string {
	ids := make([]string, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// Values returns the records in creation order.
func (c *Collection[T]) Values() []T {
	return c.Filter(func(T) bool { return true })
}

// Filter returns, in creation order, the records matching keep.
func (c *Collection[T]) Filter(keep func(T) bool) []T {
	values := make([]T, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		if keep(pair.Value) {
			values = append(values, pair.Value)
		}
	}
	return values
}

// TruncateFrom removes the record with the given id and every record added
// after it. The removed records are returned in creation order. Nothing is
// removed when the id is unknown.
func (c *Collection[T]) TruncateFrom(id string) []T {
	pair := c.entries.GetPair(id)
	if pair == nil {
		return nil
	}

	removedIDs := []string{}
	removed := []T{}
	for ; pair != nil; pair = pair.Next() {
		removedIDs = append(removedIDs, pair.Key)
		removed = append(removed, pair.Value)
	}
	for _, removedID := range removedIDs {
		c.entries.Delete(removedID)
	}
	return removed
}

func (c *Collection[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.entries)
}

func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	entries := orderedmap.New[string, T]()
	if err := json.Unmarshal(data, entries); err != nil {
		return err
	}
	c.entries = entries
	return nil
}
