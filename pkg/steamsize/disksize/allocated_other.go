//go:build !unix && !windows

package disksize

import (
	"fmt"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

func allocatedSize(path string) (int64, error) {
	return 0, fmt.Errorf("%w: %s: not supported on this platform", types.ErrDiskSizeUnavailable, path)
}
