//go:build windows

package disksize

import (
	"fmt"
	"unsafe"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"golang.org/x/sys/windows"
)

var (
	kernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procGetCompressedFileSizeW = kernel32.NewProc("GetCompressedFileSizeW")
)

const invalidFileSize = 0xFFFFFFFF

// allocatedSize asks GetCompressedFileSizeW, which reports the compressed
// size for NTFS-compressed files and the allocated size for sparse ones.
func allocatedSize(path string) (int64, error) {
	if err := procGetCompressedFileSizeW.Find(); err != nil {
		return 0, fmt.Errorf("%w: %w", types.ErrDiskSizeUnavailable, err)
	}

	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", types.ErrDiskSizeUnavailable, path, err)
	}

	var high uint32
	low, _, callErr := procGetCompressedFileSizeW.Call(
		uintptr(unsafe.Pointer(name)),
		uintptr(unsafe.Pointer(&high)),
	)

	// INVALID_FILE_SIZE is also a legitimate low word, so the last error
	// decides.
	if uint32(low) == invalidFileSize && callErr != windows.ERROR_SUCCESS {
		return 0, fmt.Errorf("%w: %s: %w", types.ErrDiskSizeUnavailable, path, callErr)
	}

	return int64(high)<<32 | int64(uint32(low)), nil
}
