package imaging

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ListImages returns every regular file under dir, recursively, whose
// extension matches ext (case-insensitive, with or without the leading dot).
// An empty ext matches all files. Paths are sorted by their name without
// extension, so "a.png" sorts before "a1.png".
func ListImages(dir, ext string) ([]string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return trimExt(paths[i]) < trimExt(paths[j])
	})
	return paths, nil
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
