package fileops

import (
	"errors"
	"fmt"
	"os"
)

const backupSuffix = ".ytq.bak"

var (
	statFile   = os.Stat
	renameFile = os.Rename
	removeFile = os.Remove
)

// ReplaceFileSafely moves src over dst. An existing dst is parked under a
// backup name first and put back if the final rename fails.
func ReplaceFileSafely(src, dst string) error {
	switch {
	case src == "" || dst == "":
		return errors.New("replace: empty path")
	case src == dst:
		return fmt.Errorf("replace: source and target are both %s", dst)
	}
	if info, err := statFile(src); err != nil {
		return fmt.Errorf("replace: %w", err)
	} else if info.IsDir() {
		return fmt.Errorf("replace: %s is a directory", src)
	}

	backup := dst + backupSuffix
	if err := removeIfExists(backup); err != nil {
		return fmt.Errorf("replace: stale backup: %w", err)
	}

	parked, err := exists(dst)
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	if parked {
		if err := renameFile(dst, backup); err != nil {
			return fmt.Errorf("replace: park %s: %w", dst, err)
		}
	}

	if err := renameFile(src, dst); err != nil {
		if parked {
			if restoreErr := renameFile(backup, dst); restoreErr != nil {
				return fmt.Errorf("replace: %v; restoring %s also failed: %w", err, dst, restoreErr)
			}
		}
		return fmt.Errorf("replace %s: %w", dst, err)
	}

	if parked {
		return removeIfExists(backup)
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := statFile(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func removeIfExists(path string) error {
	found, err := exists(path)
	if err != nil || !found {
		return err
	}
	return removeFile(path)
}
