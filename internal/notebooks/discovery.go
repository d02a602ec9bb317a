package notebooks

import (
	"io/fs"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

const (
	gitMetadataDirectoryNameConstant = ".git"
	notebookExtensionConstant        = ".ipynb"
	unreadableEntryMessageConstant   = "Skipping unreadable path while discovering notebooks"
	logFieldPathConstant             = "path"
)

// FilesystemNotebookDiscoverer locates notebooks on disk.
type FilesystemNotebookDiscoverer struct {
	logger *zap.Logger
}

// NewFilesystemNotebookDiscoverer constructs a notebook discoverer backed by filepath.WalkDir.
func NewFilesystemNotebookDiscoverer(logger *zap.Logger) *FilesystemNotebookDiscoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemNotebookDiscoverer{logger: logger}
}

// DiscoverNotebooks walks root and returns every regular *.ipynb file outside .git directories.
// An unreadable root is an error; unreadable entries below it are logged and skipped.
func (discoverer *FilesystemNotebookDiscoverer) DiscoverNotebooks(root string) ([]string, error) {
	var notebookPaths []string

	walkError := filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == root {
				return walkError
			}
			discoverer.logger.Warn(unreadableEntryMessageConstant, zap.String(logFieldPathConstant, path), zap.Error(walkError))
			return nil
		}

		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
				return fs.SkipDir
			}
			return nil
		}

		if !directoryEntry.Type().IsRegular() {
			return nil
		}

		if filepath.Ext(directoryEntry.Name()) == notebookExtensionConstant {
			notebookPaths = append(notebookPaths, path)
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Strings(notebookPaths)
	return notebookPaths, nil
}
