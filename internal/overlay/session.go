package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/editor"
	"github.com/jakopako/pinpoint/internal/geometry"
	"github.com/jakopako/pinpoint/internal/output"
	"github.com/jakopako/pinpoint/internal/recorder"
	"github.com/jakopako/pinpoint/internal/report"
	"github.com/jakopako/pinpoint/internal/screenshot"
	"github.com/jakopako/pinpoint/internal/targeter"
	"github.com/jakopako/pinpoint/internal/utils"
)

// Session connects a document to targeting, the editor, capture and a
// report writer.
type Session struct {
	doc          dom.Document
	root         dom.Element
	targeter     *targeter.Targeter
	toggle       *Toggle
	editor       editor.Editor
	capturer     *screenshot.Capturer
	console      *recorder.ConsoleRecorder
	interactions *recorder.InteractionRecorder
	assembler    *report.Assembler
	writer       output.Writer
	logger       *slog.Logger

	exclude     string
	hide        []string
	show        bool
	captureOpts []screenshot.Option

	// selections is signalled by every completed selection click
	selections chan struct{}
	detach     []func()
	closeOnce  sync.Once
}

type Option func(*Session)

// WithExclude exempts the elements matching selector from targeting.
func WithExclude(selector string) Option {
	return func(s *Session) { s.exclude = selector }
}

// WithHide hides the elements matching selectors while capturing.
func WithHide(selectors ...string) Option {
	return func(s *Session) { s.hide = selectors }
}

// WithShow appends every captured screenshot to the document.
func WithShow(show bool) Option {
	return func(s *Session) { s.show = show }
}

func WithCaptureOptions(opts ...screenshot.Option) Option {
	return func(s *Session) { s.captureOpts = opts }
}

func WithConsoleRecorder(r *recorder.ConsoleRecorder) Option {
	return func(s *Session) { s.console = r }
}

func WithInteractionRecorder(r *recorder.InteractionRecorder) Option {
	return func(s *Session) { s.interactions = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession mounts the overlay into doc and attaches the hotkey and the
// interaction recorder. Targeting starts disabled.
func NewSession(doc dom.Document, ed editor.Editor, w output.Writer, opts ...Option) (*Session, error) {
	s := &Session{
		doc:        doc,
		editor:     ed,
		writer:     w,
		assembler:  report.NewAssembler(),
		selections: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "overlay"))
	if s.console == nil {
		s.console = recorder.DefaultConsoleRecorder()
	}
	if s.interactions == nil {
		s.interactions = recorder.DefaultInteractionRecorder()
	}

	root, mounted, err := Mount(doc)
	if err != nil {
		return nil, err
	}
	if !mounted {
		s.logger.Debug("overlay root already mounted")
	}
	s.root = root

	excluded := []dom.Element{root}
	if s.exclude != "" {
		els, err := doc.QueryAll(s.exclude)
		if err != nil {
			return nil, fmt.Errorf("error while resolving excluded elements: %w", err)
		}
		excluded = append(excluded, els...)
	}
	s.targeter = targeter.New(doc, s.onSelect,
		targeter.WithExcluded(excluded...),
		targeter.WithLogger(s.logger))
	s.toggle = NewToggle(s.targeter)
	s.capturer = screenshot.New(doc, append([]screenshot.Option{screenshot.WithLogger(s.logger)}, s.captureOpts...)...)

	s.detach = append(s.detach, s.interactions.Attach(doc), s.toggle.Attach(doc))
	return s, nil
}

// Root returns the overlay root element.
func (s *Session) Root() dom.Element {
	return s.root
}

func (s *Session) Toggle() *Toggle {
	return s.toggle
}

func (s *Session) Targeter() *targeter.Targeter {
	return s.targeter
}

func (s *Session) onSelect(el dom.Element, rect geometry.Rect) {
	s.logger.Debug(fmt.Sprintf("selected %s at (%v, %v)", recorder.Describe(el), rect.Left, rect.Top))
	select {
	case s.selections <- struct{}{}:
	default:
	}
}

// Run opens the editor for every selection until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.selections:
			if _, err := s.Edit(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Error(err.Error())
			}
		}
	}
}

// Edit opens the editor anchored at the current selection and submits or
// cancels depending on the answer. It returns nil if the edit was
// cancelled.
func (s *Session) Edit(ctx context.Context) (*report.Report, error) {
	var anchor geometry.Rect
	if s.targeter.Selected() != nil {
		rect, err := s.targeter.Rect()
		if err != nil {
			s.logger.Debug(fmt.Sprintf("could not measure the selection: %v", err))
		}
		anchor = rect
	}
	res, err := s.editor.Edit(ctx, anchor)
	if err != nil {
		s.Cancel()
		return nil, fmt.Errorf("error while editing comment: %w", err)
	}
	if !res.Submitted {
		s.Cancel()
		return nil, nil
	}
	return s.Submit(ctx, res.Comment)
}

// Cancel discards the current edit.
func (s *Session) Cancel() {
	s.targeter.Release()
}

// Submit captures the selection, assembles the report and writes it. A
// capture failure is recorded on the report. Without a selection the
// report carries the comment only.
func (s *Session) Submit(ctx context.Context, comment string) (*report.Report, error) {
	defer s.targeter.Release()

	in := report.Input{
		URL:     s.doc.URL(),
		Comment: comment,
	}
	el := s.targeter.Selected()
	if el != nil && el.Connected() {
		rect, err := s.targeter.Rect()
		if err != nil {
			s.logger.Debug(fmt.Sprintf("could not measure the selection: %v", err))
		}
		in.Target = el
		in.Rect = rect
		img, err := s.capturer.Capture(ctx, el, screenshot.Options{Hide: s.hidden()})
		switch {
		case err == nil:
			in.Image = &img
			if s.show {
				if _, err := screenshot.Show(s.doc, img); err != nil {
					s.logger.Warn(fmt.Sprintf("could not show screenshot: %v", err))
				}
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			s.logger.Warn(fmt.Sprintf("capture failed: %v", err))
			in.CaptureErr = err
		}
		in.Logs = s.console.RecentLogs()
		in.Interactions = s.interactions.RecentInteractions()
	} else {
		s.logger.Info("no element selected")
	}

	r := s.assembler.Assemble(in)
	if err := s.writer.Write(ctx, r); err != nil {
		return r, fmt.Errorf("error while writing report %s: %w", r.ID, err)
	}
	s.logger.Info(fmt.Sprintf("wrote report %s (%s)", r.ID, utils.ShortenString(r.Comment, 40)))
	return r, nil
}

// hidden returns the elements hidden while capturing: the overlay root and
// the configured page chrome.
func (s *Session) hidden() []dom.Element {
	els := []dom.Element{s.root}
	for _, sel := range s.hide {
		found, err := s.doc.QueryAll(sel)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("ignoring hide selector %q: %v", sel, err))
			continue
		}
		els = append(els, found...)
	}
	return els
}

// Close disables targeting and detaches all listeners.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.toggle.Set(false)
		for _, d := range s.detach {
			d()
		}
	})
}
