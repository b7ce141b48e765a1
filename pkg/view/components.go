package view

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ComponentFunc builds a templ component from view data.
type ComponentFunc func(data map[string]any) templ.Component

// Components renders registered templ components by name.
//
// Example:
//
//	r := view.Components{
//	    "home": func(data map[string]any) templ.Component { return pages.Home(data) },
//	}
type Components map[string]ComponentFunc

// Render implements Renderer.
func (c Components) Render(ctx context.Context, w io.Writer, name string, data map[string]any) error {
	fn, ok := c[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	if err := fn(data).Render(ctx, w); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}
	return nil
}

var _ Renderer = Components(nil)
