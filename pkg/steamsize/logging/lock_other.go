//go:build !unix

package logging

import "os"

// No advisory lock outside unix; the in-process mutex still serializes writes.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
