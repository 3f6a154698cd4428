//go:build unix

package disksize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocated_SparseFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sparse.bin")

	f, err := os.Create(path)
	require.NoError(t, err)
	const logical = 64 << 20
	require.NoError(t, f.Truncate(logical))
	require.NoError(t, f.Close())

	n, err := Allocated().DiskSize(path)
	require.NoError(t, err)
	assert.Less(t, n, int64(logical), "sparse file should allocate less than its length")
}

func TestAllocated_BlockMultiple(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "data.bin")
	writeFile(t, path, 10000)

	n, err := Allocated().DiskSize(path)
	require.NoError(t, err)
	assert.Zero(t, n%512)
}

func TestAllocated_Missing(t *testing.T) {
	t.Parallel()

	_, err := Allocated().DiskSize(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, types.ErrDiskSizeUnavailable)
	require.ErrorIs(t, err, os.ErrNotExist)
}
