// Package output provides the interface and configuration and implementation for writers
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jakopako/pinpoint/internal/report"
)

// Writer defines the interface for all writers that are responsible
// for delivering a report to a specific output.
type Writer interface {
	Write(ctx context.Context, r *report.Report) error
}

// WriterConfig defines the necessary paramters to make a new writer
// which is responsible for writing reports to a specific output
// eg. stdout.
type WriterConfig struct {
	Type      WriterType `yaml:"type" env:"PINPOINT_WRITER_TYPE" env-default:"stdout"`
	Uri       string     `yaml:"uri" env:"PINPOINT_WRITER_URI"`
	User      string     `yaml:"user" env:"WRITER_USER"`         // we want to be able to pass credentials via env vars
	Password  string     `yaml:"password" env:"WRITER_PASSWORD"` // we want to be able to pass credentials via env vars
	FileDir   string     `yaml:"filedir" env:"PINPOINT_WRITER_FILEDIR"`
	DryRun    bool       `yaml:"dryrun" env:"PINPOINT_WRITER_DRYRUN"`
	UriDryRun string     `yaml:"uri_dryrun" env:"PINPOINT_WRITER_URI_DRYRUN"`
	DBPath    string     `yaml:"db_path" env:"PINPOINT_WRITER_DB_PATH"`
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	STDOUT_WRITER_TYPE WriterType = "stdout"
	FILE_WRITER_TYPE   WriterType = "file"
	API_WRITER_TYPE    WriterType = "api"
	SQLITE_WRITER_TYPE WriterType = "sqlite"
)

// NewWriter returns a new writer depending on the writer type
func NewWriter(wc *WriterConfig) (Writer, error) {
	switch wc.Type {
	case STDOUT_WRITER_TYPE, "":
		return NewStdoutWriter(wc), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	case API_WRITER_TYPE:
		return NewAPIWriter(wc)
	case SQLITE_WRITER_TYPE:
		return NewSQLiteWriter(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}

// encodeJSON renders v as indented JSON. json.MarshalIndent would replace
// certain html characters with unicode escapes, which we don't want in
// comments and console output.
func encodeJSON(v any) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("error while encoding json: %w", err)
	}
	var indentBuffer bytes.Buffer
	if err := json.Indent(&indentBuffer, buffer.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("error while indenting json: %w", err)
	}
	return indentBuffer.Bytes(), nil
}
