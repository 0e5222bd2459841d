package menu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/logger"
)

// FileName is the menu file expected inside the menu data directory.
const FileName = "menu.data"

// Category is one menu entry. It never stores image paths.
type Category struct {
	ID          int
	Dir         string
	Name        string
	Description string
	Enabled     bool
}

// RowError describes a skipped line of the menu file.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Parse reads colon-delimited rows of the form ID:DIR:ENABLED:NAME[:DESC].
// Blank lines and lines starting with '#' are ignored. Malformed rows are
// skipped and reported; parsing continues.
func Parse(r io.Reader) ([]Category, []RowError) {
	reader := csv.NewReader(r)
	reader.Comma = ':'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		cats    []Category
		rowErrs []RowError
		seen    = make(map[int]bool)
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErrs = append(rowErrs, RowError{Line: perr.StartLine, Err: perr.Err})
				continue
			}
			rowErrs = append(rowErrs, RowError{Err: err})
			break
		}
		line, _ := reader.FieldPos(0)
		cat, err := parseRow(record)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if seen[cat.ID] {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("duplicate id %d", cat.ID)})
			continue
		}
		seen[cat.ID] = true
		cats = append(cats, cat)
	}
	return cats, rowErrs
}

func parseRow(record []string) (Category, error) {
	if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
		return Category{}, errors.New("empty row")
	}
	if len(record) < 4 {
		return Category{}, fmt.Errorf("expected at least 4 fields, got %d", len(record))
	}
	id, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return Category{}, fmt.Errorf("invalid id %q", record[0])
	}
	dir := strings.TrimSpace(record[1])
	if dir == "" {
		return Category{}, errors.New("empty directory")
	}
	if filepath.IsAbs(dir) || strings.Contains(filepath.ToSlash(dir), "..") {
		return Category{}, fmt.Errorf("directory %q must stay inside the menu data directory", dir)
	}
	enabled, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return Category{}, fmt.Errorf("invalid enabled flag %q", record[2])
	}
	name := strings.TrimSpace(record[3])
	if name == "" {
		name = dir
	}
	desc := ""
	if len(record) > 4 {
		desc = strings.TrimSpace(strings.Join(record[4:], ":"))
	}
	return Category{
		ID:          id,
		Dir:         dir,
		Name:        name,
		Description: desc,
		Enabled:     enabled == 1,
	}, nil
}

// Registry holds the enabled categories in menu-file order.
type Registry struct {
	categories []Category
}

// NewRegistry keeps only enabled categories, preserving their relative order.
func NewRegistry(all []Category) *Registry {
	enabled := make([]Category, 0, len(all))
	for _, c := range all {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	return &Registry{categories: enabled}
}

// Load parses <dir>/menu.data. Row errors are logged and skipped; a missing
// or unreadable file, or a file without any enabled category, is fatal.
func Load(dir string) (*Registry, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Startup(fmt.Sprintf("menu file %s could not be opened", path), err)
	}
	defer f.Close()

	cats, rowErrs := Parse(f)
	for _, re := range rowErrs {
		logger.Warn("Skipping malformed menu row",
			"path", path, "line", re.Line,
			"error", apperrors.MenuParse(re.Error(), re.Err))
	}

	reg := NewRegistry(cats)
	if reg.Len() == 0 {
		return nil, apperrors.Startup(fmt.Sprintf("menu file %s has no enabled categories", path), nil)
	}
	logger.Info("Menu loaded", "path", path, "rows", len(cats), "enabled", reg.Len(), "skipped", len(rowErrs))
	return reg, nil
}

func (r *Registry) Len() int { return len(r.categories) }

// At returns the i-th enabled category.
func (r *Registry) At(i int) Category { return r.categories[i] }

// Categories returns a copy of the enabled categories.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Names returns the display names in order, for the sidebar.
func (r *Registry) Names() []string {
	names := make([]string, len(r.categories))
	for i, c := range r.categories {
		names[i] = c.Name
	}
	return names
}
