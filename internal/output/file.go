package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jakopako/pinpoint/internal/report"
)

// FileWriter represents a writer that writes each report to its own file.
// The screenshot is stored next to it.
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.FileDir == "" {
		return nil, errors.New("filedir needs to be specified for the FileWriter")
	}

	if err := os.MkdirAll(wc.FileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", wc.FileDir, err)
	}

	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

func (w *FileWriter) Write(_ context.Context, r *report.Report) error {
	b, err := encodeJSON(r)
	if err != nil {
		return err
	}
	reportPath := filepath.Join(w.FileDir, r.ID+".json")
	if err := os.WriteFile(reportPath, b, 0644); err != nil {
		return fmt.Errorf("error while writing report to file: %w", err)
	}
	w.logger.Info(fmt.Sprintf("wrote report to file %s", reportPath))

	if r.Image == nil {
		return nil
	}
	imagePath := filepath.Join(w.FileDir, fmt.Sprintf("%s.%s", r.ID, r.Image.Format))
	if err := os.WriteFile(imagePath, r.Image.Data, 0644); err != nil {
		return fmt.Errorf("error while writing screenshot to file: %w", err)
	}
	w.logger.Info(fmt.Sprintf("wrote screenshot to file %s", imagePath))
	return nil
}
