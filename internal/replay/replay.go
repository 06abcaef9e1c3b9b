// Package replay replays configured interactions through a dom.Pointer.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/log"
	"github.com/jakopako/pinpoint/internal/types"
)

const defaultDelay = 500 * time.Millisecond

// Replayer replays interactions on a document.
type Replayer struct {
	doc     dom.Document
	pointer dom.Pointer
	// sleep waits between interactions
	sleep func(ctx context.Context, d time.Duration) error
}

func New(doc dom.Document, pointer dom.Pointer) *Replayer {
	return &Replayer{
		doc:     doc,
		pointer: pointer,
		sleep:   sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run replays interactions in order. Interactions whose selector matches
// nothing are skipped.
func (r *Replayer) Run(ctx context.Context, interactions []types.Interaction) error {
	logger := log.LoggerFromContext(ctx).With(slog.String("component", "replay"))
	for j, ia := range interactions {
		logger.Debug(fmt.Sprintf("processing interaction nr %d, type %s", j, ia.Type))
		delay := defaultDelay
		if ia.Delay > 0 {
			delay = time.Duration(ia.Delay) * time.Millisecond
		}
		count := 1
		if ia.Count > 0 {
			count = ia.Count
		}
		for range count {
			done, err := r.step(ctx, ia, logger)
			if err != nil {
				return fmt.Errorf("error while replaying interaction nr %d (%s): %w", j, ia.Type, err)
			}
			if !done {
				break
			}
			if err := r.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// step performs one interaction. It reports false if there was nothing to
// interact with.
func (r *Replayer) step(ctx context.Context, ia types.Interaction, logger *slog.Logger) (bool, error) {
	switch ia.Type {
	case types.InteractionTypeClick:
		x, y, ok, err := r.point(ia)
		if err != nil || !ok {
			return false, err
		}
		logger.Debug(fmt.Sprintf("clicking at (%v, %v)", x, y))
		_, err = r.pointer.Click(ctx, x, y)
		return err == nil, err
	case types.InteractionTypeMove:
		x, y, ok, err := r.point(ia)
		if err != nil || !ok {
			return false, err
		}
		return true, r.pointer.MoveTo(ctx, x, y)
	case types.InteractionTypeInput:
		el, err := r.doc.Query(ia.Selector)
		if err != nil {
			return false, err
		}
		if el == nil {
			logger.Debug(fmt.Sprintf("no element found for selector %s", ia.Selector))
			return false, nil
		}
		logger.Debug(fmt.Sprintf("typing into node with selector: %s", ia.Selector))
		return true, r.pointer.Type(ctx, el, ia.Value)
	case types.InteractionTypeScroll:
		if ia.X == 0 && ia.Y == 0 {
			logger.Warn("scroll interaction without offset")
			return false, nil
		}
		logger.Debug(fmt.Sprintf("scrolling by (%v, %v)", ia.X, ia.Y))
		return true, r.pointer.ScrollBy(ctx, ia.X, ia.Y)
	default:
		logger.Warn(fmt.Sprintf("unknown interaction type %s", ia.Type))
		return false, nil
	}
}

// point returns the target point of ia: the center of the element
// matching its selector, or its coordinates if it has no selector.
func (r *Replayer) point(ia types.Interaction) (float64, float64, bool, error) {
	if ia.Selector == "" {
		return ia.X, ia.Y, true, nil
	}
	return Center(r.doc, ia.Selector)
}

// Center returns the viewport center of the first element matching
// selector. ok is false if nothing matches.
func Center(doc dom.Document, selector string) (x, y float64, ok bool, err error) {
	el, err := doc.Query(selector)
	if err != nil || el == nil {
		return 0, 0, false, err
	}
	b, err := el.Bounds()
	if err != nil {
		return 0, 0, false, err
	}
	x, y = b.Center()
	return x, y, true, nil
}
