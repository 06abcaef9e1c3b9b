package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jakopako/pinpoint/internal/report"
)

// APIWriter represents a writer that posts reports to an API.
type APIWriter struct {
	*WriterConfig
	client *http.Client
	logger *slog.Logger
}

// NewAPIWriter returns a new APIWriter
func NewAPIWriter(wc *WriterConfig) (*APIWriter, error) {
	if wc.DryRun && wc.UriDryRun == "" {
		return nil, errors.New("if dryrun is true, uri_dryrun needs to be set")
	}
	if !wc.DryRun && wc.Uri == "" {
		return nil, errors.New("uri needs to be specified for the APIWriter")
	}
	return &APIWriter{
		WriterConfig: wc,
		client: &http.Client{
			Timeout: time.Second * 60,
		},
		logger: slog.With(slog.String("writer", string(API_WRITER_TYPE))),
	}, nil
}

func (w *APIWriter) Write(ctx context.Context, r *report.Report) error {
	if w.DryRun {
		result, err := w.validate(ctx, r)
		if err != nil {
			return fmt.Errorf("error while validating report: %w", err)
		}
		w.logger.Info("validation result")
		fmt.Println(result)
		// in dry run mode we do not write anything to the api
		return nil
	}
	if err := w.persist(ctx, r); err != nil {
		return fmt.Errorf("error while posting report: %w", err)
	}
	w.logger.Info(fmt.Sprintf("wrote report %s to the api", r.ID))
	return nil
}

func (w *APIWriter) persist(ctx context.Context, r *report.Report) error {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Uri, bytes.NewBuffer(reportJSON))
	if err != nil {
		return err
	}
	req.Header = map[string][]string{
		"Content-Type": {"application/json"},
	}
	req.SetBasicAuth(w.User, w.Password)
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while sending post request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error while reading post request response: %w", err)
		}
		return fmt.Errorf("error while adding new report. Status Code: %d Response: %s", resp.StatusCode, body)
	}
	return nil
}

func (w *APIWriter) validate(ctx context.Context, r *report.Report) (string, error) {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.UriDryRun, bytes.NewBuffer(reportJSON))
	if err != nil {
		return "", err
	}
	req.Header = map[string][]string{
		"Content-Type": {"application/json"},
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error while sending post request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error while reading post request response: %w", err)
	}

	// beautify the json response
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err != nil {
		return "", fmt.Errorf("error while indenting json: %w", err)
	}
	return prettyJSON.String(), nil
}
