// Package dataset reads and writes the flat CSV tables passed between
// pipeline stages.
package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/models"
)

func WriteCollected(path string, items []models.CollectedItem) error {
	return writeTable(path, items)
}

func ReadCollected(path string) ([]models.CollectedItem, error) {
	return readTable[models.CollectedItem](path)
}

func WriteLabeled(path string, items []models.LabeledItem) error {
	return writeTable(path, items)
}

// ReadLabeled loads the labeled table. Scores are taken from the file as
// written; they are only ever derived by the labeler.
func ReadLabeled(path string) ([]models.LabeledItem, error) {
	return readTable[models.LabeledItem](path)
}

// FilterWindow keeps rows created inside w, preserving order.
func FilterWindow(items []models.LabeledItem, w config.Window) []models.LabeledItem {
	if w.IsZero() {
		return items
	}
	out := make([]models.LabeledItem, 0, len(items))
	for _, item := range items {
		if w.Contains(item.CreatedUTC) {
			out = append(out, item)
		}
	}
	return out
}

func writeTable[T any](path string, rows []T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("[Dataset] create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[Dataset] create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("[Dataset] write %s: %w", path, err)
	}

	slog.Debug("[Dataset] Table written", slog.String("path", path), slog.Int("rows", len(rows)))
	return file.Close()
}

func readTable[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[Dataset] open %s: %w", path, err)
	}
	defer file.Close()

	var rows []T
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("[Dataset] read %s: %w", path, err)
	}

	slog.Debug("[Dataset] Table loaded", slog.String("path", path), slog.Int("rows", len(rows)))
	return rows, nil
}
