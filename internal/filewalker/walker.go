package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultExt is the extension of script containers.
	DefaultExt = ".binu8"
	// DefaultExclude is the shared script that carries no per-scene string table.
	DefaultExclude = "__global.binu8"
)

// Walker discovers script containers under a root directory.
type Walker struct {
	ext     string
	exclude map[string]bool
}

// NewWalker creates a Walker matching ext and skipping the given file names.
func NewWalker(ext string, exclude ...string) *Walker {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	w := &Walker{
		ext:     ext,
		exclude: make(map[string]bool, len(exclude)),
	}
	for _, name := range exclude {
		if name != "" {
			w.exclude[name] = true
		}
	}
	return w
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	// Path is the absolute path of the file.
	Path string
	// RelPath is relative to the walk root, with forward slashes.
	RelPath string
}

// Walk discovers all matching files under the given root directory in lexical
// order.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if info.IsDir() {
			return nil
		}

		name := info.Name()
		if !strings.HasSuffix(name, w.ext) || w.exclude[name] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}

		entries = append(entries, FileEntry{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
