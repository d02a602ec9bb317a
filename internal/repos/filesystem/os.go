package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	ownerWritePermissionConstant    = fs.FileMode(0o200)
	ownerTraversePermissionConstant = fs.FileMode(0o700)
	emptyRemovalPathMessageConstant = "refusing to remove an empty path"
	rootRemovalPathMessageTemplate  = "refusing to remove filesystem root %s"
	clearProtectionErrorTemplate    = "clear write protection under %s: %w"
	removeDirectoryErrorTemplate    = "remove %s: %w"
)

// ErrEmptyRemovalPath indicates RemoveAll received an empty path.
var ErrEmptyRemovalPath = errors.New(emptyRemovalPathMessageConstant)

// OSFileSystem implements the clone workspace operations using operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// RemoveAll deletes path recursively after granting the owner write access to
// every entry, so read-only git pack files do not block removal. A missing
// path is not an error.
func (OSFileSystem) RemoveAll(path string) error {
	if len(path) == 0 {
		return ErrEmptyRemovalPath
	}

	cleanedPath := filepath.Clean(path)
	if cleanedPath == filepath.Dir(cleanedPath) {
		return fmt.Errorf(rootRemovalPathMessageTemplate, cleanedPath)
	}

	if _, statError := os.Lstat(cleanedPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf(removeDirectoryErrorTemplate, cleanedPath, statError)
	}

	walkError := filepath.WalkDir(cleanedPath, func(entryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return nil
		}
		if directoryEntry.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		entryInfo, infoError := directoryEntry.Info()
		if infoError != nil {
			return nil
		}

		requiredPermissions := ownerWritePermissionConstant
		if directoryEntry.IsDir() {
			requiredPermissions = ownerTraversePermissionConstant
		}
		currentPermissions := entryInfo.Mode().Perm()
		if currentPermissions&requiredPermissions == requiredPermissions {
			return nil
		}
		return os.Chmod(entryPath, currentPermissions|requiredPermissions)
	})
	if walkError != nil {
		return fmt.Errorf(clearProtectionErrorTemplate, cleanedPath, walkError)
	}

	if removeError := os.RemoveAll(cleanedPath); removeError != nil {
		return fmt.Errorf(removeDirectoryErrorTemplate, cleanedPath, removeError)
	}
	return nil
}
