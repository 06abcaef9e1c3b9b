package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jakopako/pinpoint/internal/report"
)

// StdoutWriter represents a writer that writes to stdout
type StdoutWriter struct {
	out    io.Writer
	logger *slog.Logger
}

// NewStdoutWriter returns a new StdoutWriter
func NewStdoutWriter(wc *WriterConfig) *StdoutWriter {
	return &StdoutWriter{
		out:    os.Stdout,
		logger: slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) Write(_ context.Context, r *report.Report) error {
	b, err := encodeJSON(r)
	if err != nil {
		return fmt.Errorf("error while writing report %s: %w", r.ID, err)
	}
	_, err = w.out.Write(b)
	return err
}
