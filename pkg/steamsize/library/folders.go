package library

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jamesainslie/steamsize/pkg/steamsize/acf"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
)

// FoldersFile is the file in Steam's own steamapps directory that lists every
// library folder.
const FoldersFile = "libraryfolders.vdf"

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// FromLibraryFolders reads steamapps/libraryfolders.vdf and returns the
// steamapps directory of every library it lists, in file order.
//
// Two layouts are understood. Current clients write one numbered block per
// library with a "path" entry; older clients wrote "1" "D:\\SteamLibrary"
// pairs at the top level. The apps blocks of the current layout also use
// numeric keys, but their values are numbers and are ignored.
func FromLibraryFolders(fs afero.Fs, steamapps string) ([]string, error) {
	path := filepath.Join(steamapps, FoldersFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", types.ErrIO, path, err)
	}

	var roots []string
	for _, p := range acf.Scan(string(data)) {
		isPath := p.Key == "path"
		isLegacy := digitsOnly.MatchString(p.Key) && !digitsOnly.MatchString(p.Value)
		if !isPath && !isLegacy {
			continue
		}
		roots = append(roots, filepath.Join(unescape(p.Value), "steamapps"))
	}
	return roots, nil
}

// unescape undoes KeyValues string escaping. Only backslash escapes appear in
// library paths in practice.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Candidates returns the library roots to process: the configured roots
// followed, when discover is set, by any default Steam install found on this
// machine and every library listed in the libraryfolders.vdf files of those
// roots. Paths are cleaned and deduplicated; the first occurrence wins.
//
// Roots are not checked for existence here; a missing root is reported when
// it is processed.
func Candidates(fs afero.Fs, configured []string, discover bool) []string {
	logger := logging.Get("library")

	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if strings.TrimSpace(p) == "" {
			return
		}
		clean := filepath.Clean(p)
		key := canonical(fs, clean)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, clean)
	}

	for _, p := range configured {
		add(p)
	}
	if !discover {
		return out
	}

	sources := append([]string(nil), out...)
	for _, dir := range DefaultSteamDirs() {
		if IsDir(fs, dir) {
			sources = append(sources, dir)
			add(dir)
		}
	}

	for _, src := range sources {
		roots, err := FromLibraryFolders(fs, src)
		if err != nil {
			logger.Debug("no library folders file", "root", src, "error", err)
			continue
		}
		for _, r := range roots {
			add(r)
		}
	}

	return out
}

// canonical returns the key used to spot duplicate roots. On the real
// filesystem symlinks are resolved, since ~/.steam/steam usually points at
// ~/.local/share/Steam.
func canonical(fs afero.Fs, p string) string {
	if _, ok := fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			p = resolved
		}
	}
	if filepath.Separator == '\\' {
		p = strings.ToLower(p)
	}
	return p
}
