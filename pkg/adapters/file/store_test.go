package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/beatpilot/pkg/adapters/file"
	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_LayoutOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc", []byte(`{"history":[]}`)))

	data, err := os.ReadFile(filepath.Join(dir, "abc.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"history":[]}`, string(data))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	err := store.Put(ctx, "../escape", []byte("{}"))
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = store.Get(ctx, "")
	assert.Error(t, err)
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	store := file.New(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
}
