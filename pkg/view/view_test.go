package view_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routeforge/pkg/view"
)

func greeting(data map[string]any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>Hello %s</h1>", templ.EscapeString(fmt.Sprint(data["name"])))
		return err
	})
}

func TestComponents(t *testing.T) {
	t.Parallel()

	r := view.Components{"greeting": greeting}

	t.Run("renders registered component", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := r.Render(context.Background(), &buf, "greeting", map[string]any{"name": "<Ann>"})
		require.NoError(t, err)
		require.Equal(t, "<h1>Hello &lt;Ann&gt;</h1>", buf.String())
	})

	t.Run("unknown view", func(t *testing.T) {
		t.Parallel()
		err := r.Render(context.Background(), io.Discard, "missing", nil)
		require.ErrorIs(t, err, view.ErrViewNotFound)
	})

	t.Run("component failure is wrapped", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		failing := view.Components{"bad": func(map[string]any) templ.Component {
			return templ.ComponentFunc(func(context.Context, io.Writer) error { return boom })
		}}
		err := failing.Render(context.Background(), io.Discard, "bad", nil)
		require.ErrorIs(t, err, view.ErrRenderFailed)
		require.ErrorIs(t, err, boom)
	})
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"views/about.md": &fstest.MapFile{Data: []byte("---\ntitle: About\n---\n# About {{.name}}\n\nSome **bold** text.\n")},
		"views/plain.md": &fstest.MapFile{Data: []byte("plain {{.id}}")},
		"views/bad.md":   &fstest.MapFile{Data: []byte("---\ntitle: [unclosed\n---\nbody")},
		"views/raw.md":   &fstest.MapFile{Data: []byte("<div class=\"note\">hi {{.name}}</div>\n\n<script>alert(1)</script>\n")},
		"layout.html":    &fstest.MapFile{Data: []byte(`<title>{{.Metadata.title}}</title><main>{{.Content}}</main>`)},
	}

	t.Run("without layout", func(t *testing.T) {
		t.Parallel()
		r := view.NewMarkdown(fsys, view.WithDir("views"))
		var buf bytes.Buffer
		require.NoError(t, r.Render(context.Background(), &buf, "plain", map[string]any{"id": "7"}))
		require.Equal(t, "<p>plain 7</p>\n", buf.String())
	})

	t.Run("with layout and frontmatter", func(t *testing.T) {
		t.Parallel()
		r := view.NewMarkdown(fsys, view.WithDir("views"), view.WithLayout("layout.html"))
		var buf bytes.Buffer
		require.NoError(t, r.Render(context.Background(), &buf, "about", map[string]any{"name": "us"}))
		require.Contains(t, buf.String(), "<title>About</title>")
		require.Contains(t, buf.String(), "<h1>About us</h1>")
		require.Contains(t, buf.String(), "<strong>bold</strong>")
	})

	t.Run("raw html is omitted by default", func(t *testing.T) {
		t.Parallel()
		r := view.NewMarkdown(fsys, view.WithDir("views"))
		var buf bytes.Buffer
		require.NoError(t, r.Render(context.Background(), &buf, "raw", map[string]any{"name": "ann"}))
		require.NotContains(t, buf.String(), "<div")
		require.NotContains(t, buf.String(), "<script>")
	})

	t.Run("raw html passes through the policy", func(t *testing.T) {
		t.Parallel()
		r := view.NewMarkdown(fsys, view.WithDir("views"), view.WithRawHTML(nil))
		var buf bytes.Buffer
		require.NoError(t, r.Render(context.Background(), &buf, "raw", map[string]any{"name": "ann"}))
		require.Contains(t, buf.String(), "hi ann</div>")
		require.NotContains(t, buf.String(), "<script>")
		require.NotContains(t, buf.String(), "alert(1)")
	})

	t.Run("missing view", func(t *testing.T) {
		t.Parallel()
		r := view.NewMarkdown(fsys, view.WithDir("views"))
		err := r.Render(context.Background(), io.Discard, "nope", nil)
		require.ErrorIs(t, err, view.ErrViewNotFound)
	})

	t.Run("invalid frontmatter", func(t *testing.T) {
		t.Parallel()
		r := view.NewMarkdown(fsys, view.WithDir("views"))
		err := r.Render(context.Background(), io.Discard, "bad", nil)
		require.ErrorIs(t, err, view.ErrInvalidFrontmatter)
	})
}

func TestChain(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"docs.md": &fstest.MapFile{Data: []byte("docs")}}
	chain := view.Chain{
		view.Components{"greeting": greeting},
		view.NewMarkdown(fsys),
	}

	var buf bytes.Buffer
	require.NoError(t, chain.Render(context.Background(), &buf, "greeting", map[string]any{"name": "x"}))
	require.Equal(t, "<h1>Hello x</h1>", buf.String())

	buf.Reset()
	require.NoError(t, chain.Render(context.Background(), &buf, "docs", nil))
	require.Equal(t, "<p>docs</p>\n", buf.String())

	err := chain.Render(context.Background(), io.Discard, "none", nil)
	require.ErrorIs(t, err, view.ErrViewNotFound)
}
