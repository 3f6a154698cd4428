package library

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// DefaultSteamDirs returns the steamapps directories of the standard Steam
// install locations for this OS. None of them are checked for existence.
func DefaultSteamDirs() []string {
	return defaultSteamDirs(runtime.GOOS, xdg.Home, xdg.DataHome, os.Getenv("ProgramFiles(x86)"))
}

func defaultSteamDirs(goos, home, dataHome, programFilesX86 string) []string {
	switch goos {
	case "windows":
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}
		return []string{filepath.Join(programFilesX86, "Steam", "steamapps")}
	case "darwin":
		return []string{filepath.Join(home, "Library", "Application Support", "Steam", "steamapps")}
	default:
		return []string{
			filepath.Join(dataHome, "Steam", "steamapps"),
			filepath.Join(home, ".steam", "steam", "steamapps"),
			filepath.Join(home, ".steam", "root", "steamapps"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", "data", "Steam", "steamapps"),
		}
	}
}
