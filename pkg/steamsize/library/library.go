// Package library locates Steam library folders and the app manifests and
// install directories inside them.
//
// A library root here is always a steamapps directory: it holds the
// appmanifest_<appid>.acf files directly and the installed games under
// common/<installdir>.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
)

// CommonDir is the directory under a library root that holds install dirs.
const CommonDir = "common"

var manifestName = regexp.MustCompile(`^appmanifest_([0-9]+)\.acf$`)

// IsManifest reports whether name is an app manifest file name.
func IsManifest(name string) bool {
	return manifestName.MatchString(name)
}

// AppIDFromPath returns the app ID encoded in a manifest file name.
func AppIDFromPath(path string) (string, bool) {
	m := manifestName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FindManifests returns the paths of all app manifests directly inside root,
// sorted by name. Backups and temp files are not manifests.
func FindManifests(fs afero.Fs, root string) ([]string, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", types.ErrIO, root, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !IsManifest(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(root, entry.Name()))
	}
	return paths, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(fs afero.Fs, path string) bool {
	ok, err := afero.IsDir(fs, path)
	return err == nil && ok
}

// InstallPath returns root/common/installdir without touching the filesystem.
func InstallPath(root, installDir string) string {
	return filepath.Join(root, CommonDir, installDir)
}

// ResolveInstallDir returns the install directory for installDir under
// root/common. If the exact name does not exist, a directory whose name
// matches ignoring case is accepted: some manifests (DLCs in particular)
// record the install dir with the wrong case, which only matters on
// case-sensitive filesystems.
//
// Fails with types.ErrInstallDirNotFound when nothing matches and with
// types.ErrInvalidValue when installDir would escape the common folder.
func ResolveInstallDir(fs afero.Fs, root, installDir string) (string, error) {
	if err := validateInstallDir(installDir); err != nil {
		return "", err
	}

	common := filepath.Join(root, CommonDir)
	exact := filepath.Join(common, installDir)
	if IsDir(fs, exact) {
		return exact, nil
	}

	entries, err := afero.ReadDir(fs, common)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", types.ErrInstallDirNotFound, exact)
		}
		return "", fmt.Errorf("%w: listing %s: %w", types.ErrIO, common, err)
	}

	for _, entry := range entries {
		if !strings.EqualFold(entry.Name(), installDir) {
			continue
		}
		candidate := filepath.Join(common, entry.Name())
		if IsDir(fs, candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", types.ErrInstallDirNotFound, exact)
}

func validateInstallDir(installDir string) error {
	clean := filepath.Clean(installDir)
	switch {
	case strings.TrimSpace(installDir) == "":
		return fmt.Errorf("%w: empty installdir", types.ErrInvalidValue)
	case filepath.IsAbs(installDir), filepath.VolumeName(installDir) != "":
		return fmt.Errorf("%w: installdir %q is absolute", types.ErrInvalidValue, installDir)
	case clean == "..", strings.HasPrefix(clean, ".."+string(filepath.Separator)), clean == ".":
		return fmt.Errorf("%w: installdir %q leaves the common folder", types.ErrInvalidValue, installDir)
	}
	return nil
}
