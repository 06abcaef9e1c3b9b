// Package editor collects the comment for a selected element.
package editor

import (
	"context"

	"github.com/jakopako/pinpoint/internal/geometry"
)

// PopoverOffset is the vertical gap between an element and the comment
// form anchored below it.
const PopoverOffset = 8

// Result is the outcome of an edit. Submitted is false if the user
// cancelled.
type Result struct {
	Comment   string
	Submitted bool
}

// Editor asks the user for a comment on the element at anchor.
type Editor interface {
	Edit(ctx context.Context, anchor geometry.Rect) (Result, error)
}

// PopoverPosition returns the page position of a form anchored below
// anchor.
func PopoverPosition(anchor geometry.Rect) (top, left float64) {
	return anchor.Top + anchor.Height + PopoverOffset, anchor.Left
}

// Static is an Editor with a preset answer.
type Static struct {
	Comment string
	Cancel  bool
}

func (s Static) Edit(ctx context.Context, _ geometry.Rect) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.Cancel {
		return Result{}, nil
	}
	return Result{Comment: s.Comment, Submitted: true}, nil
}
