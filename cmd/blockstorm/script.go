package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dshills/blockstorm/internal/config"
)

// ErrInvalidStep is returned for a script step with no action or more than
// one.
var ErrInvalidStep = errors.New("invalid script step")

// Script is a replayable input session.
type Script struct {
	// Doc is the initial markup. The --doc flag overrides it.
	Doc   string `yaml:"doc"`
	Steps []Step `yaml:"steps"`
}

// Step is one scripted action. Exactly one action field is set.
type Step struct {
	Keys    []string        `yaml:"keys,omitempty"`
	Type    string          `yaml:"type,omitempty"`
	Insert  string          `yaml:"insert,omitempty"`
	Command string          `yaml:"command,omitempty"`
	Content string          `yaml:"content,omitempty"`
	Block   string          `yaml:"block,omitempty"`
	Caret   *Caret          `yaml:"caret,omitempty"`
	Click   string          `yaml:"click,omitempty"`
	Wait    config.Duration `yaml:"wait,omitempty"`
	Undo    bool            `yaml:"undo,omitempty"`
	Redo    bool            `yaml:"redo,omitempty"`
}

// Caret places a collapsed caret inside a block. A negative offset means
// the end of the block's first text.
type Caret struct {
	Block  string `yaml:"block"`
	Offset int    `yaml:"offset"`
}

// Action returns the name of the step's action.
func (s Step) Action() (string, error) {
	var set []string
	if len(s.Keys) > 0 {
		set = append(set, "keys")
	}
	if s.Type != "" {
		set = append(set, "type")
	}
	if s.Insert != "" {
		set = append(set, "insert")
	}
	if s.Command != "" {
		set = append(set, "command")
	}
	if s.Caret != nil {
		set = append(set, "caret")
	}
	if s.Click != "" {
		set = append(set, "click")
	}
	if s.Wait > 0 {
		set = append(set, "wait")
	}
	if s.Undo {
		set = append(set, "undo")
	}
	if s.Redo {
		set = append(set, "redo")
	}
	switch len(set) {
	case 1:
		return set[0], nil
	case 0:
		return "", fmt.Errorf("%w: no action", ErrInvalidStep)
	default:
		return "", fmt.Errorf("%w: several actions %v", ErrInvalidStep, set)
	}
}

// ParseScript decodes a YAML script. Unknown fields are rejected.
func ParseScript(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	for i, step := range s.Steps {
		if _, err := step.Action(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}
