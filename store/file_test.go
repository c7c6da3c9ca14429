package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loop/chore-ledger/store"
)

func TestFile_LoadBeforeFirstSave(t *testing.T) {
	// GIVEN: A path with no document yet
	// WHEN: Loading
	// THEN: nil bytes, no error

	f := store.NewFile(filepath.Join(t.TempDir(), "loop.json"))

	raw, err := f.Load()
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestFile_SaveRoundTrips(t *testing.T) {
	// GIVEN: A saved document
	// WHEN: Loading it back
	// THEN: Identical bytes; a second save replaces them

	f := store.NewFile(filepath.Join(t.TempDir(), "data", "loop.json"))

	require.NoError(t, f.Save([]byte(`{"schema":3}`)))
	raw, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"schema":3}`, string(raw))

	require.NoError(t, f.Save([]byte(`{"schema":3,"people":[]}`)))
	raw, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"schema":3,"people":[]}`, string(raw))
}

func TestFile_SaveLeavesNoTempFile(t *testing.T) {
	// GIVEN: An atomic save
	// WHEN: Listing the directory
	// THEN: Only the document remains

	dir := t.TempDir()
	f := store.NewFile(filepath.Join(dir, "loop.json"))
	require.NoError(t, f.Save([]byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "loop.json", entries[0].Name())
}

func TestFile_BackupsNeverOverwrite(t *testing.T) {
	// GIVEN: Two backups taken in the same second
	// WHEN: Writing them
	// THEN: Distinct files exist with the original payloads intact

	dir := t.TempDir()
	f := store.NewFile(filepath.Join(dir, "loop.json"))

	first, err := f.WriteBackup([]byte("old-v1"))
	require.NoError(t, err)
	second, err := f.WriteBackup([]byte("old-v2"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	raw, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "old-v1", string(raw))
	raw, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "old-v2", string(raw))

	backups, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestMemory_RoundTripAndCounters(t *testing.T) {
	// GIVEN: The in-memory store
	// WHEN: Saving, loading, and backing up
	// THEN: Bytes round-trip and the observability counters track writes

	m := store.NewMemory()

	raw, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, m.Save([]byte("doc")))
	raw, err = m.Load()
	require.NoError(t, err)
	assert.Equal(t, "doc", string(raw))
	assert.Equal(t, 1, m.Saves())

	_, err = m.WriteBackup([]byte("old"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Backups())
}
