package disksize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", size)), 0o644))
}

// gameTree builds a small install directory and returns its root.
func gameTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Half-Life 2")
	writeFile(t, filepath.Join(root, "hl2.exe"), 1000)
	writeFile(t, filepath.Join(root, "hl2", "pak01.vpk"), 2500)
	writeFile(t, filepath.Join(root, "hl2", "maps", "d1_trainstation_01.bsp"), 500)
	return root
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: ModeAuto},
		{input: "auto", want: ModeAuto},
		{input: "Allocated", want: ModeAllocated},
		{input: " logical ", want: ModeLogical},
		{input: "compressed", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			require.ErrorIs(t, err, types.ErrInvalidValue, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, mode := range Modes {
		s, err := New(mode)
		require.NoError(t, err, "mode %s", mode)
		assert.NotNil(t, s)
	}

	_, err := New("bogus")
	require.ErrorIs(t, err, types.ErrInvalidValue)
}

func TestLogical(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "f.bin")
	writeFile(t, path, 1234)

	n, err := Logical().DiskSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)

	_, err = Logical().DiskSize(path + ".missing")
	require.ErrorIs(t, err, types.ErrIO)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithFallback(t *testing.T) {
	t.Parallel()

	unavailable := Func(func(string) (int64, error) {
		return 0, types.ErrDiskSizeUnavailable
	})
	missing := Func(func(path string) (int64, error) {
		return 0, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	})
	fixed := func(n int64) Sizer {
		return Func(func(string) (int64, error) { return n, nil })
	}

	t.Run("primary succeeds", func(t *testing.T) {
		n, err := WithFallback(fixed(4096), fixed(1)).DiskSize("x")
		require.NoError(t, err)
		assert.Equal(t, int64(4096), n)
	})

	t.Run("primary unavailable uses fallback", func(t *testing.T) {
		n, err := WithFallback(unavailable, fixed(777)).DiskSize("x")
		require.NoError(t, err)
		assert.Equal(t, int64(777), n)
	})

	t.Run("missing file measures zero", func(t *testing.T) {
		n, err := WithFallback(missing, fixed(777)).DiskSize("x")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("fallback missing measures zero", func(t *testing.T) {
		n, err := WithFallback(unavailable, missing).DiskSize("x")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("both fail", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := WithFallback(unavailable, Func(func(string) (int64, error) { return 0, boom })).DiskSize("x")
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrDiskSizeUnavailable)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAuto_MissingFileIsZero(t *testing.T) {
	t.Parallel()
	s, err := New(ModeAuto)
	require.NoError(t, err)

	n, err := s.DiskSize(filepath.Join(t.TempDir(), "gone"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDirSize_Logical(t *testing.T) {
	t.Parallel()
	root := gameTree(t)

	total, err := DirSize(context.Background(), root, Logical(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total.Bytes)
	assert.Equal(t, int64(3), total.Files)
	assert.GreaterOrEqual(t, total.Dirs, int64(2))
	assert.Empty(t, total.Errors)
	assert.NoError(t, total.Err())
	assert.Equal(t, root, total.Root)
}

func TestDirSize_WorkerCounts(t *testing.T) {
	t.Parallel()
	root := gameTree(t)

	for _, workers := range []int{0, 1, 4} {
		total, err := DirSize(context.Background(), root, Logical(), workers)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, int64(4000), total.Bytes, "workers=%d", workers)
	}
}

func TestDirSize_SkipsSymlinks(t *testing.T) {
	t.Parallel()
	root := gameTree(t)
	outside := filepath.Join(t.TempDir(), "big.bin")
	writeFile(t, outside, 9000)

	if err := os.Symlink(outside, filepath.Join(root, "link.bin")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Dir(outside), filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	var mu sync.Mutex
	var seen []string
	recording := Func(func(path string) (int64, error) {
		mu.Lock()
		seen = append(seen, filepath.Base(path))
		mu.Unlock()
		return Logical().DiskSize(path)
	})

	total, err := DirSize(context.Background(), root, recording, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total.Bytes)
	assert.NotContains(t, seen, "link.bin")
	assert.NotContains(t, seen, "big.bin")
}

func TestDirSize_SymlinkedRoot(t *testing.T) {
	t.Parallel()
	root := gameTree(t)
	link := filepath.Join(t.TempDir(), "common-link")
	if err := os.Symlink(root, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	total, err := DirSize(context.Background(), link, Logical(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total.Bytes)
	assert.Equal(t, link, total.Root)
}

func TestDirSize_CollectsFileErrors(t *testing.T) {
	t.Parallel()
	root := gameTree(t)

	flaky := Func(func(path string) (int64, error) {
		if filepath.Base(path) == "pak01.vpk" {
			return 0, types.ErrDiskSizeUnavailable
		}
		return Logical().DiskSize(path)
	})

	total, err := DirSize(context.Background(), root, flaky, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), total.Bytes)
	assert.Equal(t, int64(2), total.Files)
	require.Len(t, total.Errors, 1)
	assert.Equal(t, filepath.Join(root, "hl2", "pak01.vpk"), total.Errors[0].Path)
	assert.ErrorIs(t, total.Err(), types.ErrDiskSizeUnavailable)
}

func TestDirSize_EmptyDir(t *testing.T) {
	t.Parallel()

	total, err := DirSize(context.Background(), t.TempDir(), Logical(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total.Bytes)
	assert.Equal(t, int64(0), total.Files)
}

func TestDirSize_BadRoot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := DirSize(context.Background(), filepath.Join(dir, "missing"), Logical(), 0)
	require.ErrorIs(t, err, types.ErrInstallDirNotFound)

	file := filepath.Join(dir, "file")
	writeFile(t, file, 1)
	_, err = DirSize(context.Background(), file, Logical(), 0)
	require.ErrorIs(t, err, types.ErrInstallDirNotFound)
}

func TestDirSize_Cancelled(t *testing.T) {
	t.Parallel()
	root := gameTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DirSize(ctx, root, Logical(), 0)
	require.ErrorIs(t, err, context.Canceled)
}
