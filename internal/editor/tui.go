package editor

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/jakopako/pinpoint/internal/geometry"
	"github.com/rivo/tview"
)

const commentLabel = "Comment"

// TUI asks for the comment in a terminal form. Escape cancels.
type TUI struct {
	// screen replaces the terminal, if set
	screen tcell.Screen
}

func NewTUI() *TUI {
	return &TUI{}
}

func (t *TUI) Edit(ctx context.Context, anchor geometry.Rect) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	app := tview.NewApplication()
	if t.screen != nil {
		app.SetScreen(t.screen)
	}
	var res Result
	form := newForm(anchor, func(r Result) {
		res = r
		app.Stop()
	})
	stop := context.AfterFunc(ctx, app.Stop)
	defer stop()

	if err := app.SetRoot(form, true).SetFocus(form).Run(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// newForm builds the comment form. done is called once with the result.
func newForm(anchor geometry.Rect, done func(Result)) *tview.Form {
	top, left := PopoverPosition(anchor)
	form := tview.NewForm()
	form.AddTextView("Element", fmt.Sprintf("%.0fx%.0f at (%.0f, %.0f)", anchor.Width, anchor.Height, anchor.Left, anchor.Top), 0, 1, false, false)
	form.AddTextView("Form at", fmt.Sprintf("(%.0f, %.0f)", left, top), 0, 1, false, false)
	form.AddTextArea(commentLabel, "", 0, 5, 0, nil)
	textArea := form.GetFormItemByLabel(commentLabel).(*tview.TextArea)
	textArea.SetPlaceholder("Describe the issue or feedback...")

	form.AddButton("Submit", func() {
		done(Result{Comment: textArea.GetText(), Submitted: true})
	})
	form.AddButton("Cancel", func() {
		done(Result{})
	})
	form.SetCancelFunc(func() {
		done(Result{})
	})
	form.SetBorder(true).SetTitle(" Add Comment ").SetTitleAlign(tview.AlignLeft)
	form.SetFieldBackgroundColor(tcell.ColorDarkSlateGray)
	return form
}
