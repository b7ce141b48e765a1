package view

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrViewNotFound is returned when no renderer knows the view name.
	ErrViewNotFound = errors.New("view: not found")

	// ErrRenderFailed wraps template and conversion failures.
	ErrRenderFailed = errors.New("view: render failed")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter in a markdown view.
	ErrInvalidFrontmatter = errors.New("view: invalid frontmatter")
)

// Renderer writes the named view to w.
// Implementations return an error wrapping ErrViewNotFound for unknown names.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, name string, data map[string]any) error
}

// Chain tries renderers in order and uses the first one that knows the view.
type Chain []Renderer

// Render implements Renderer.
func (c Chain) Render(ctx context.Context, w io.Writer, name string, data map[string]any) error {
	for _, r := range c {
		err := r.Render(ctx, w, name, data)
		if !errors.Is(err, ErrViewNotFound) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrViewNotFound, name)
}

var _ Renderer = Chain(nil)
