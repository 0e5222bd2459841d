package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/menu"
)

// Images lists the image files directly inside dir, sorted by file name.
// Sub-directories are not descended into. A missing directory yields an
// empty list and no error.
//
// Only directory entries are read here; file contents are left to the loader.
func Images(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !IsImageExt(filepath.Ext(e.Name())) {
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	// Stable output regardless of the file system's own ordering.
	sort.Slice(paths, func(i, j int) bool { return filepath.Base(paths[i]) < filepath.Base(paths[j]) })
	return paths, nil
}

// IsImageExt reports whether ext (with the leading dot) is a decodable still
// image format.
func IsImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// Catalog maps category ids to their ordered image paths.
type Catalog map[int][]string

// Paths returns the images of a category; nil when it has none.
func (c Catalog) Paths(categoryID int) []string {
	return c[categoryID]
}

// Total returns the number of images over all categories.
func (c Catalog) Total() int {
	n := 0
	for _, p := range c {
		n += len(p)
	}
	return n
}

// Build scans the directory of every category under root. Scan failures are
// logged and leave the category empty.
func Build(root string, cats []menu.Category) Catalog {
	catalog := make(Catalog, len(cats))
	for _, c := range cats {
		dir := filepath.Join(root, c.Dir)
		paths, err := Images(dir)
		if err != nil {
			logger.Warn("Category directory unreadable", "category", c.Name, "dir", dir, "error", err)
		}
		if len(paths) == 0 {
			logger.Warn("Category has no images", "category", c.Name, "dir", dir)
		}
		catalog[c.ID] = paths
	}
	return catalog
}
