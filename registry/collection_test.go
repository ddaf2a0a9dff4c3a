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

package registry_test

import (
	"testing"

	"code.vegaprotocol.io/anchor/registry"
	"code.vegaprotocol.io/anchor/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID      string `json:"id"`
	Session string `json:"session,omitempty"`
	Value   int    `json:"value"`
}

func TestCollection(t *testing.T) {
	t.Run("Appending keeps creation order", testAppendingKeepsCreationOrder)
	t.Run("Appending an existing id fails", testAppendingExistingIDFails)
	t.Run("Deleting a record removes only that record", testDeletingRecordRemovesOnlyThatRecord)
	t.Run("Truncating removes the record and every later one", testTruncatingRemovesRecordAndLaterOnes)
	t.Run("Truncating from an unknown id removes nothing", testTruncatingFromUnknownIDRemovesNothing)
	t.Run("Filtering preserves order", testFilteringPreservesOrder)
}

func newCollection(t *testing.T, ids ...string) *registry.Collection[record] {
	t.Helper()
	c := registry.NewCollection[record]()
	for i, id := range ids {
		require.NoError(t, c.Append(id, record{ID: id, Value: i}))
	}
	return c
}

func testAppendingKeepsCreationOrder(t *testing.T) {
	c := newCollection(t, "c", "a", "b")

	assert.Equal(t, []string{"c", "a", "b"}, c.IDs())
	assert.Equal(t, 3, c.Len())
	values := c.Values()
	require.Len(t, values, 3)
	assert.Equal(t, "c", values[0].ID)
	assert.Equal(t, "b", values[2].ID)
}

func testAppendingExistingIDFails(t *testing.T) {
	c := newCollection(t, "a")

	err := c.Append("a", record{ID: "a", Value: 42})

	require.ErrorIs(t, err, types.ErrDuplicateID)
	rec, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 0, rec.Value)
}

func testDeletingRecordRemovesOnlyThatRecord(t *testing.T) {
	c := newCollection(t, "a", "b", "c")

	assert.True(t, c.Delete("b"))
	assert.False(t, c.Delete("b"))

	assert.Equal(t, []string{"a", "c"}, c.IDs())
	assert.False(t, c.Has("b"))
}

func testTruncatingRemovesRecordAndLaterOnes(t *testing.T) {
	c := newCollection(t, "s1", "s2", "s3", "s4")

	removed := c.TruncateFrom("s2")

	require.Len(t, removed, 3)
	assert.Equal(t, "s2", removed[0].ID)
	assert.Equal(t, "s3", removed[1].ID)
	assert.Equal(t, "s4", removed[2].ID)
	assert.Equal(t, []string{"s1"}, c.IDs())
}

func testTruncatingFromUnknownIDRemovesNothing(t *testing.T) {
	c := newCollection(t, "s1", "s2")

	removed := c.TruncateFrom("s9")

	assert.Empty(t, removed)
	assert.Equal(t, []string{"s1", "s2"}, c.IDs())
}

func testFilteringPreservesOrder(t *testing.T) {
	c := registry.NewCollection[record]()
	require.NoError(t, c.Append("a", record{ID: "a", Session: "x"}))
	require.NoError(t, c.Append("b", record{ID: "b", Session: "y"}))
	require.NoError(t, c.Append("c", record{ID: "c", Session: "x"}))

	filtered := c.Filter(func(r record) bool { return r.Session == "x" })

	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].ID)
	assert.Equal(t, "c", filtered[1].ID)
}
