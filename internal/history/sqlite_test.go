// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "inv_1",
		StartedAt: time.UnixMilli(1700000000000),
		Duration:  42 * time.Second,
		Model:     "claude-sonnet-4-20250514",
		Success:   true,
		ToolCalls: 3,
		Output:    "done",
	}
	require.NoError(t, store.Record(ctx, entry))

	got, err := store.Get(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, entry, *got)
}

func TestRecordRequiresID(t *testing.T) {
	store := openTestStore(t)
	err := store.Record(context.Background(), Entry{})
	require.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.UnixMilli(1700000000000)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Entry{
			ID:        string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Success:   i%2 == 0,
			ErrorCode: map[bool]string{false: "EXECUTION_FAILED", true: ""}[i%2 == 0],
		}))
	}

	entries, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].ID)
	assert.Equal(t, "d", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)
}

func TestListDefaultLimit(t *testing.T) {
	store := openTestStore(t)
	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
}

func TestOpenCreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), Entry{
		ID:        "inv_1",
		StartedAt: time.Now(),
	}))
}
