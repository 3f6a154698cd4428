package library

import (
	"path/filepath"
	"testing"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/games/SteamLibrary/steamapps"

func memFs(t *testing.T, files map[string]string, dirs ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(d, 0o755))
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestIsManifest(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"appmanifest_220.acf":     true,
		"appmanifest_1091500.acf": true,
		"appmanifest_220.acf.bak": false,
		"appmanifest_220.acf.tmp": false,
		"appmanifest_.acf":        false,
		"appmanifest_abc.acf":     false,
		"libraryfolders.vdf":      false,
		"APPMANIFEST_220.ACF":     false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsManifest(name), name)
	}
}

func TestAppIDFromPath(t *testing.T) {
	t.Parallel()

	id, ok := AppIDFromPath(filepath.Join(root, "appmanifest_220.acf"))
	assert.True(t, ok)
	assert.Equal(t, "220", id)

	_, ok = AppIDFromPath(filepath.Join(root, "appmanifest_220.acf.bak"))
	assert.False(t, ok)
}

func TestFindManifests(t *testing.T) {
	t.Parallel()
	fs := memFs(t, map[string]string{
		filepath.Join(root, "appmanifest_620.acf"):     "x",
		filepath.Join(root, "appmanifest_220.acf"):     "x",
		filepath.Join(root, "appmanifest_220.acf.bak"): "x",
		filepath.Join(root, "libraryfolders.vdf"):      "x",
	}, filepath.Join(root, "common", "Half-Life 2"), filepath.Join(root, "appmanifest_999.acf"))

	got, err := FindManifests(fs, root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "appmanifest_220.acf"),
		filepath.Join(root, "appmanifest_620.acf"),
	}, got, "directories named like manifests are ignored")
}

func TestFindManifests_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := FindManifests(afero.NewMemMapFs(), root)
	require.ErrorIs(t, err, types.ErrIO)
}

func TestFindManifests_Empty(t *testing.T) {
	t.Parallel()
	fs := memFs(t, nil, root)

	got, err := FindManifests(fs, root)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveInstallDir(t *testing.T) {
	t.Parallel()
	fs := memFs(t, map[string]string{
		filepath.Join(root, "common", "notadir"): "file",
	},
		filepath.Join(root, "common", "Half-Life 2"),
		filepath.Join(root, "common", "X3 Terran Conflict"),
	)

	t.Run("exact match", func(t *testing.T) {
		got, err := ResolveInstallDir(fs, root, "Half-Life 2")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "common", "Half-Life 2"), got)
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		got, err := ResolveInstallDir(fs, root, "x3 terran conflict")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "common", "X3 Terran Conflict"), got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ResolveInstallDir(fs, root, "Portal")
		require.ErrorIs(t, err, types.ErrInstallDirNotFound)
	})

	t.Run("file is not an install dir", func(t *testing.T) {
		_, err := ResolveInstallDir(fs, root, "notadir")
		require.ErrorIs(t, err, types.ErrInstallDirNotFound)
	})

	t.Run("no common folder", func(t *testing.T) {
		_, err := ResolveInstallDir(afero.NewMemMapFs(), root, "Half-Life 2")
		require.ErrorIs(t, err, types.ErrInstallDirNotFound)
	})

	for _, bad := range []string{"", "  ", "..", "../other", ".", "/etc"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ResolveInstallDir(fs, root, bad)
			require.ErrorIs(t, err, types.ErrInvalidValue)
		})
	}
}

func TestInstallPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join(root, "common", "Portal"), InstallPath(root, "Portal"))
}

const newLibraryFolders = `"libraryfolders"
{
	"0"
	{
		"path"		"/home/gamer/.local/share/Steam"
		"label"		""
		"contentid"		"1234567890"
		"totalsize"		"0"
		"apps"
		{
			"228980"		"421963718"
			"220"		"6442450944"
		}
	}
	"1"
	{
		"path"		"/mnt/games/SteamLibrary"
		"label"		"games"
		"apps"
		{
			"620"		"12884901888"
		}
	}
}
`

const legacyLibraryFolders = `"LibraryFolders"
{
	"TimeNextStatsReport"		"1600000000"
	"ContentStatsID"		"-123456789"
	"1"		"/mnt/games/SteamLibrary"
	"2"		"/media/usb/Steam Library"
}
`

func TestFromLibraryFolders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "current layout",
			content: newLibraryFolders,
			want: []string{
				"/home/gamer/.local/share/Steam/steamapps",
				"/mnt/games/SteamLibrary/steamapps",
			},
		},
		{
			name:    "legacy layout",
			content: legacyLibraryFolders,
			want: []string{
				"/mnt/games/SteamLibrary/steamapps",
				"/media/usb/Steam Library/steamapps",
			},
		},
		{
			name:    "no libraries",
			content: "\"libraryfolders\"\n{\n}\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFs(t, map[string]string{filepath.Join(root, FoldersFile): tt.content})

			got, err := FromLibraryFolders(fs, root)
			require.NoError(t, err)

			want := make([]string, 0, len(tt.want))
			for _, w := range tt.want {
				want = append(want, filepath.FromSlash(w))
			}
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestFromLibraryFolders_Missing(t *testing.T) {
	t.Parallel()

	_, err := FromLibraryFolders(afero.NewMemMapFs(), root)
	require.ErrorIs(t, err, types.ErrIO)
}

func TestUnescape(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`C:\\Program Files (x86)\\Steam`: `C:\Program Files (x86)\Steam`,
		`/plain/path`:                    `/plain/path`,
		`tab\there`:                      "tab\there",
		`trailing\`:                      `trailing\`,
		`quote\"d`:                       `quote"d`,
	}
	for in, want := range tests {
		assert.Equal(t, want, unescape(in), in)
	}
}

func TestCandidates(t *testing.T) {
	t.Parallel()
	fs := memFs(t, map[string]string{
		filepath.Join(root, FoldersFile): newLibraryFolders,
	})

	t.Run("configured only", func(t *testing.T) {
		got := Candidates(fs, []string{root, root + "/", "", "/other/steamapps"}, false)
		assert.Equal(t, []string{root, "/other/steamapps"}, got)
	})

	t.Run("discovery follows library folders", func(t *testing.T) {
		got := Candidates(fs, []string{root}, true)
		assert.Equal(t, []string{
			root,
			filepath.FromSlash("/home/gamer/.local/share/Steam/steamapps"),
			filepath.FromSlash("/mnt/games/SteamLibrary/steamapps"),
		}, got)
	})

	t.Run("nothing configured", func(t *testing.T) {
		assert.Empty(t, Candidates(fs, nil, false))
	})
}

func TestDefaultSteamDirs(t *testing.T) {
	t.Parallel()

	linux := defaultSteamDirs("linux", "/home/u", "/home/u/.local/share", "")
	assert.Equal(t, []string{
		filepath.Join("/home/u/.local/share", "Steam", "steamapps"),
		filepath.Join("/home/u", ".steam", "steam", "steamapps"),
		filepath.Join("/home/u", ".steam", "root", "steamapps"),
		filepath.Join("/home/u", ".var", "app", "com.valvesoftware.Steam", "data", "Steam", "steamapps"),
	}, linux)

	darwin := defaultSteamDirs("darwin", "/Users/u", "", "")
	assert.Equal(t, []string{filepath.Join("/Users/u", "Library", "Application Support", "Steam", "steamapps")}, darwin)

	windows := defaultSteamDirs("windows", "", "", "")
	require.Len(t, windows, 1)
	assert.Contains(t, windows[0], "Steam")

	assert.NotEmpty(t, DefaultSteamDirs())
}
