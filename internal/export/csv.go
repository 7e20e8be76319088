// Package export writes unified products to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/match"
)

// WriteCSV writes one row per product member to path, creating parent
// directories as needed. The file is truncated if it already exists.
func WriteCSV(path string, products []domain.UnifiedProduct) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(match.Header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, row := range match.Rows(products) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
