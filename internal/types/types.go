// Package types defines shared types used across the application.
package types

// Interaction represents a simple user interaction with a webpage. It is
// replayed before targeting starts so that the diagnostics have some
// history.
type Interaction struct {
	Type     string  `yaml:"type,omitempty"`
	Selector string  `yaml:"selector,omitempty"`
	Value    string  `yaml:"value,omitempty"`
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
	Count    int     `yaml:"count,omitempty"`
	Delay    int     `yaml:"delay,omitempty"`
}

const (
	InteractionTypeClick  = "click"
	InteractionTypeInput  = "input"
	InteractionTypeMove   = "move"
	InteractionTypeScroll = "scroll"
)
