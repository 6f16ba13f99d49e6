package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	path, err := store.Save(ctx, "notes.txt", bytes.NewReader([]byte("hello")), 5, "text/plain")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "notes.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))

	require.NoError(t, store.Remove(ctx, path))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	// Removing an already removed file is not an error.
	require.NoError(t, store.Remove(ctx, path))
}

func TestObjectName(t *testing.T) {
	name := ObjectName("report.pdf")
	require.True(t, strings.HasSuffix(name, ".pdf"))
	require.NotEqual(t, name, ObjectName("report.pdf"), "object names must not collide")
}
