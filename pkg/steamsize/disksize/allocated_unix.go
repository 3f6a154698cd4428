//go:build unix

package disksize

import (
	"fmt"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"golang.org/x/sys/unix"
)

// allocatedSize reports st_blocks in 512-byte units, which is what du(1)
// counts regardless of the filesystem block size.
func allocatedSize(path string) (int64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", types.ErrDiskSizeUnavailable, path, err)
	}
	return int64(st.Blocks) * 512, nil
}
