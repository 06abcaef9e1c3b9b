// Package report assembles bug reports from a selection, a comment and the
// recorded diagnostics.
package report

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
	"github.com/jakopako/pinpoint/internal/recorder"
	"github.com/microcosm-cc/bluemonday"
)

// Report is a bug report anchored to an element of a page.
type Report struct {
	ID           string                      `json:"id"`
	CreatedAt    time.Time                   `json:"createdAt"`
	URL          string                      `json:"url,omitempty"`
	Comment      string                      `json:"comment"`
	Target       string                      `json:"target,omitempty"`
	Rect         *geometry.Rect              `json:"rect,omitempty"`
	Screenshot   string                      `json:"screenshot,omitempty"`
	CaptureError string                      `json:"captureError,omitempty"`
	Logs         []recorder.LogEntry         `json:"logs,omitempty"`
	Interactions []recorder.InteractionEntry `json:"interactions,omitempty"`

	// Image is the raw screenshot. It is not part of the JSON document,
	// which carries it as a data URL.
	Image *dom.Image `json:"-"`
}

// HasSelection reports whether the report is anchored to an element.
func (r *Report) HasSelection() bool {
	return r.Target != ""
}

// Errors returns the recorded console errors.
func (r *Report) Errors() []recorder.LogEntry {
	var errs []recorder.LogEntry
	for _, l := range r.Logs {
		if l.Kind == recorder.LogKindError {
			errs = append(errs, l)
		}
	}
	return errs
}

// Summary counts the diagnostics attached to a report.
type Summary struct {
	Logs         map[recorder.LogKind]int
	Errors       int
	Interactions int
	Screenshot   bool
}

func (r *Report) Summary() Summary {
	s := Summary{
		Logs:         map[recorder.LogKind]int{},
		Interactions: len(r.Interactions),
		Screenshot:   r.Screenshot != "",
	}
	for _, l := range r.Logs {
		s.Logs[l.Kind]++
	}
	s.Errors = s.Logs[recorder.LogKindError]
	return s
}

// Input holds everything a report is assembled from. Target is nil when
// nothing was selected.
type Input struct {
	URL          string
	Comment      string
	Target       dom.Element
	Rect         geometry.Rect
	Image        *dom.Image
	CaptureErr   error
	Logs         []recorder.LogEntry
	Interactions []recorder.InteractionEntry
}

// Assembler builds reports.
type Assembler struct {
	policy *bluemonday.Policy
	now    func() time.Time
	newID  func() string
}

func NewAssembler() *Assembler {
	return &Assembler{
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Assemble builds a report from in. A report without a target carries the
// comment only.
func (a *Assembler) Assemble(in Input) *Report {
	r := &Report{
		ID:        a.newID(),
		CreatedAt: a.now(),
		URL:       in.URL,
		Comment:   a.SanitizeComment(in.Comment),
	}
	if in.Target == nil {
		return r
	}
	r.Target = recorder.Describe(in.Target)
	rect := in.Rect
	r.Rect = &rect
	if in.Image != nil {
		img := *in.Image
		r.Image = &img
		r.Screenshot = img.DataURL()
	}
	if in.CaptureErr != nil {
		r.CaptureError = in.CaptureErr.Error()
	}
	r.Logs = in.Logs
	r.Interactions = in.Interactions
	return r
}

// SanitizeComment strips markup from a comment and returns plain text.
func (a *Assembler) SanitizeComment(c string) string {
	return strings.TrimSpace(html.UnescapeString(a.policy.Sanitize(c)))
}
