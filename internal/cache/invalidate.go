package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeLLMCacheByAge removes cache entries whose modification time is older
// than maxAge. A missing directory is not an error.
func PurgeLLMCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	files, err := entryFiles(dir)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for _, f := range files {
		if now.Sub(f.modTime) <= maxAge {
			continue
		}
		if err := os.Remove(f.path); err == nil {
			removed++
		}
	}
	return removed, nil
}

// EnforceLLMCacheLimits evicts least recently used entries until at most
// maxEntries remain. Zero disables the limit.
func EnforceLLMCacheLimits(dir string, maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, nil
	}
	files, err := entryFiles(dir)
	if err != nil {
		return 0, err
	}
	if len(files) <= maxEntries {
		return 0, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	removed := 0
	for _, f := range files[:len(files)-maxEntries] {
		if err := os.Remove(f.path); err == nil {
			removed++
		}
	}
	return removed, nil
}

type entryFile struct {
	path    string
	modTime time.Time
}

func entryFiles(dir string) ([]entryFile, error) {
	var out []entryFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, entryFile{path: path, modTime: info.ModTime().UTC()})
		return nil
	})
	return out, err
}
