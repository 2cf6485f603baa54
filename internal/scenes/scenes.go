// Package scenes is the catalog of built-in explainer scenes. Every entry
// builds fresh objects on each call, so a scene can be rendered repeatedly
// without sharing state with an earlier run.
package scenes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ivlev/explainer/internal/scene"
)

var ErrUnknownScene = errors.New("unknown scene")

// Options are the knobs shared by catalog scenes.
type Options struct {
	// Link is encoded in the outro QR code.
	Link string
}

// DefaultLink is used by the outro when Options.Link is empty.
const DefaultLink = "https://github.com/ivlev/explainer"

// Definition is a named scene that can build its steps.
type Definition struct {
	Name        string
	Description string
	Build       func(Options) ([]scene.Step, error)
}

var registry = map[string]Definition{}

func register(d Definition) {
	if _, dup := registry[d.Name]; dup {
		panic("scenes: duplicate scene " + d.Name)
	}
	registry[d.Name] = d
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	d, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return Definition{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names lists the registered scenes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build looks up name and builds its steps.
func Build(name string, opts Options) ([]scene.Step, error) {
	d, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	steps, err := d.Build(opts)
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", name, err)
	}
	return steps, nil
}
