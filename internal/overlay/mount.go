// Package overlay mounts pinpoint into a document and wires targeting,
// editing, capture and reporting into a session.
package overlay

import (
	"errors"
	"fmt"

	"github.com/jakopako/pinpoint/internal/dom"
)

const (
	RootID        = "pinpoint-root"
	RootAttribute = "data-pinpoint-overlay"
)

// Mount appends the overlay root to the body of doc. If the root already
// exists it is returned with false.
func Mount(doc dom.Document) (dom.Element, bool, error) {
	existing, err := doc.ElementByID(RootID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	body := doc.Body()
	if body == nil {
		return nil, false, errors.New("document has no body")
	}
	root, err := doc.CreateElement("div")
	if err != nil {
		return nil, false, err
	}
	for _, a := range [][2]string{{"id", RootID}, {RootAttribute, ""}} {
		if err := root.SetAttribute(a[0], a[1]); err != nil {
			return nil, false, fmt.Errorf("error while mounting overlay: %w", err)
		}
	}
	if err := root.SetStyle("pointer-events", "none"); err != nil {
		return nil, false, fmt.Errorf("error while mounting overlay: %w", err)
	}
	if err := body.AppendChild(root); err != nil {
		return nil, false, fmt.Errorf("error while mounting overlay: %w", err)
	}
	return root, true, nil
}
