/*
pinpoint lets you point at an element of a web page and file a bug report
about it, with a screenshot and the recent console output and interactions
attached.

Have a look at the README.md for more information.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/jakopako/pinpoint/internal/browser"
	"github.com/jakopako/pinpoint/internal/config"
	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/dom/htmldoc"
	"github.com/jakopako/pinpoint/internal/editor"
	"github.com/jakopako/pinpoint/internal/fetch"
	"github.com/jakopako/pinpoint/internal/log"
	"github.com/jakopako/pinpoint/internal/output"
	"github.com/jakopako/pinpoint/internal/overlay"
	"github.com/jakopako/pinpoint/internal/recorder"
	"github.com/jakopako/pinpoint/internal/replay"
	"github.com/jakopako/pinpoint/internal/report"
	"github.com/jakopako/pinpoint/internal/screenshot"
	"github.com/olekukonko/tablewriter"
)

var version = "dev"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store additional helpful debugging data."`

	Report ReportCmd `cmd:"" help:"Select an element of a page and file a report about it."`
	Config ConfigCmd `cmd:"" help:"Print the effective configuration."`
}

// page is what a report is taken on: a document that also takes input.
type page interface {
	dom.Document
	dom.Pointer
}

type ReportCmd struct {
	URL         string    `short:"u" long:"url" help:"The URL of the page to report on." xor:"source" required:""`
	File        string    `short:"f" long:"file" help:"An HTML file to report on instead of a live page." xor:"source" required:"" completion:"<file>"`
	Static      bool      `long:"static" help:"If set to true the page at --url is fetched without a browser."`
	Config      string    `short:"c" long:"config" help:"The configuration file. If not set, the configuration is read from the environment." completion:"<file>"`
	At          []float64 `long:"at" sep:"," help:"The viewport point x,y of the element to select."`
	Selector    string    `short:"s" long:"selector" help:"A CSS selector of the element to select. Takes precedence over --at."`
	Comment     string    `short:"m" long:"comment" help:"The comment of the report."`
	Interactive bool      `short:"i" help:"If set to true, the comment is asked for in a terminal form."`
	Stdout      bool      `short:"o" long:"stdout" help:"If set to true the report will be written to stdout despite any other existing writer configurations."`
	DryRun      bool      `short:"D" help:"If set to true the report will not be persisted (currently only has an effect on the APIWriter)."`
	Show        bool      `long:"show" help:"Append the screenshot to the page."`
	Summary     bool      `long:"summary" help:"Print a summary of the attached diagnostics."`
}

func (rc *ReportCmd) Validate() error {
	if len(rc.At) != 0 && len(rc.At) != 2 {
		return errors.New("--at expects a point x,y")
	}
	return nil
}

func (rc *ReportCmd) Run() error {
	cfg, err := config.NewConfig(rc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	if rc.Stdout {
		cfg.Writer.Type = output.STDOUT_WRITER_TYPE
	}
	if rc.DryRun {
		cfg.Writer.DryRun = true
	}

	writer, err := output.NewWriter(&cfg.Writer)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	if c, ok := writer.(io.Closer); ok {
		defer c.Close()
	}

	ctx := context.Background()
	consoleRecorder := recorder.NewConsoleRecorder(cfg.Recorder.ConsoleCapacity)
	console := recorder.NewConsole(slog.Default())
	uninstall, err := consoleRecorder.Install(console)
	if err != nil {
		return err
	}
	defer uninstall()

	p, closePage, err := rc.open(ctx, cfg, console)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer closePage()

	var ed editor.Editor = editor.Static{Comment: rc.Comment}
	if rc.Interactive {
		ed = editor.NewTUI()
	}
	session, err := overlay.NewSession(p, ed, writer,
		overlay.WithExclude(cfg.Targeter.Exclude),
		overlay.WithHide(cfg.Capture.Hide...),
		overlay.WithShow(rc.Show),
		overlay.WithCaptureOptions(
			screenshot.WithMaxAscendDepth(cfg.Capture.MaxAscendDepth),
			screenshot.WithEmphasis(cfg.Capture.BoxShadow, cfg.Capture.ZIndex)),
		overlay.WithConsoleRecorder(consoleRecorder),
		overlay.WithInteractionRecorder(recorder.NewInteractionRecorder(cfg.Recorder.InteractionCapacity)))
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer session.Close()

	if len(cfg.Interactions) > 0 {
		slog.Info(fmt.Sprintf("replaying %d interactions", len(cfg.Interactions)))
		if err := replay.New(p, p).Run(ctx, cfg.Interactions); err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
	}

	session.Toggle().Set(true)
	if err := rc.selectTarget(ctx, p); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	r, err := session.Edit(ctx)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	if r == nil {
		slog.Info("report cancelled")
		return nil
	}
	slog.Info(fmt.Sprintf("filed report %s", r.ID))
	if rc.Summary {
		printSummary(os.Stderr, r)
	}
	return nil
}

// open loads the page the report is taken on.
func (rc *ReportCmd) open(ctx context.Context, cfg *config.Config, console *recorder.Console) (page, func(), error) {
	if rc.File != "" {
		f, err := os.Open(rc.File)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		abs, err := filepath.Abs(rc.File)
		if err != nil {
			return nil, nil, err
		}
		doc, err := htmldoc.Parse(f, htmldoc.WithURL("file://"+abs))
		if err != nil {
			return nil, nil, err
		}
		return doc, func() {}, nil
	}

	if rc.Static {
		doc, err := fetch.Load(ctx, fetch.NewStaticFetcher(cfg.Browser.UserAgent), rc.URL)
		if err != nil {
			return nil, nil, err
		}
		return doc, func() {}, nil
	}

	b := browser.New(&cfg.Browser)
	p, err := b.Open(log.ContextWithLogger(ctx, slog.Default()), rc.URL, browser.WithConsole(console))
	if err != nil {
		b.Cancel()
		return nil, nil, err
	}
	return p, func() {
		p.Close()
		b.Cancel()
	}, nil
}

// selectTarget hovers and clicks the requested element. Without a target
// nothing is selected and the report carries the comment only.
func (rc *ReportCmd) selectTarget(ctx context.Context, p page) error {
	var x, y float64
	switch {
	case rc.Selector != "":
		cx, cy, ok, err := replay.Center(p, rc.Selector)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no element found for selector %s", rc.Selector)
		}
		x, y = cx, cy
	case len(rc.At) == 2:
		x, y = rc.At[0], rc.At[1]
	default:
		slog.Info("no target given, the report will only carry the comment")
		return nil
	}
	if err := p.MoveTo(ctx, x, y); err != nil {
		return err
	}
	if _, err := p.Click(ctx, x, y); err != nil {
		return err
	}
	return nil
}

func printSummary(w io.Writer, r *report.Report) {
	s := r.Summary()
	table := tablewriter.NewWriter(w)
	table.Header("Diagnostic", "Count")
	for _, kind := range recorder.LogKinds {
		table.Append([]string{"console." + string(kind), strconv.Itoa(s.Logs[kind])})
	}
	table.Append([]string{"interactions", strconv.Itoa(s.Interactions)})
	screenshotState := "yes"
	if !s.Screenshot {
		screenshotState = "no"
	}
	table.Footer("screenshot", screenshotState)
	table.Render()
}

type ConfigCmd struct {
	Config string `short:"c" long:"config" help:"The configuration file. If not set, the configuration is read from the environment." completion:"<file>"`
}

func (cc *ConfigCmd) Run() error {
	cfg, err := config.NewConfig(cc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	b, err := cfg.YAML()
	if err != nil {
		slog.Error(fmt.Sprintf("error while marshalling. %v", err))
		return err
	}
	fmt.Print(string(b))
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name("pinpoint"),
		kong.Description("Point at an element of a web page and file a bug report about it."),
		kong.Vars{
			"version": string(cli.Version),
		})

	log.Debug = cli.Debug
	log.InitializeDefaultLogger()

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
