package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Markdown renders markdown views with YAML frontmatter from a filesystem.
// The body is executed as a text/template with the view data, converted to
// HTML and, when a layout is configured, wrapped in an html/template layout
// that receives .Content, .Metadata and .Data.
type Markdown struct {
	fs     fs.FS
	md     goldmark.Markdown
	pages  map[string]*cachedPage
	layout *template.Template
	opts   markdownOptions
	mu     sync.RWMutex
}

type cachedPage struct {
	metadata map[string]any
	tmpl     *texttemplate.Template
}

type markdownOptions struct {
	dir        string
	layoutPath string
	ext        string
	policy     *bluemonday.Policy
}

// MarkdownOption configures the Markdown renderer.
type MarkdownOption func(*markdownOptions)

// WithDir sets the directory views are read from. Default: ".".
func WithDir(dir string) MarkdownOption {
	return func(o *markdownOptions) { o.dir = dir }
}

// WithLayout sets the layout file path. Default: no layout.
func WithLayout(p string) MarkdownOption {
	return func(o *markdownOptions) { o.layoutPath = p }
}

// WithRawHTML lets views embed raw HTML. The converted page is passed
// through policy before it reaches the layout; a nil policy means
// bluemonday.UGCPolicy. Default: raw HTML is omitted from the output.
func WithRawHTML(policy *bluemonday.Policy) MarkdownOption {
	return func(o *markdownOptions) {
		if policy == nil {
			policy = bluemonday.UGCPolicy()
		}
		o.policy = policy
	}
}

// WithExtension sets the view file extension. Default: ".md".
func WithExtension(ext string) MarkdownOption {
	return func(o *markdownOptions) { o.ext = ext }
}

// NewMarkdown creates a markdown renderer over fsys.
func NewMarkdown(fsys fs.FS, opts ...MarkdownOption) *Markdown {
	o := markdownOptions{dir: ".", ext: ".md"}
	for _, opt := range opts {
		opt(&o)
	}

	gmOpts := []goldmark.Option{goldmark.WithExtensions(extension.GFM)}
	if o.policy != nil {
		gmOpts = append(gmOpts, goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	}

	return &Markdown{
		fs:    fsys,
		md:    goldmark.New(gmOpts...),
		pages: make(map[string]*cachedPage),
		opts:  o,
	}
}

// Render implements Renderer.
func (m *Markdown) Render(_ context.Context, w io.Writer, name string, data map[string]any) error {
	p, err := m.page(name)
	if err != nil {
		return err
	}

	var src bytes.Buffer
	if err := p.tmpl.Execute(&src, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	var content bytes.Buffer
	if err := m.md.Convert(src.Bytes(), &content); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}
	out := content.Bytes()
	if m.opts.policy != nil {
		out = m.opts.policy.SanitizeBytes(out)
	}

	layout, err := m.getLayout()
	if err != nil {
		return err
	}
	if layout == nil {
		_, err := w.Write(out)
		return err
	}

	return layout.Execute(w, map[string]any{
		"Content":  template.HTML(out),
		"Metadata": p.metadata,
		"Data":     data,
	})
}

// page returns the parsed view, reading it on first use.
func (m *Markdown) page(name string) (*cachedPage, error) {
	m.mu.RLock()
	cached, ok := m.pages[name]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.pages[name]; ok {
		return cached, nil
	}

	file := name
	if path.Ext(file) == "" {
		file += m.opts.ext
	}
	content, err := fs.ReadFile(m.fs, path.Join(m.opts.dir, file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	parsed, err := parsePage(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	cached = &cachedPage{metadata: parsed.Metadata, tmpl: tmpl}
	m.pages[name] = cached
	return cached, nil
}

func (m *Markdown) getLayout() (*template.Template, error) {
	if m.opts.layoutPath == "" {
		return nil, nil
	}

	m.mu.RLock()
	layout := m.layout
	m.mu.RUnlock()
	if layout != nil {
		return layout, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.layout != nil {
		return m.layout, nil
	}

	content, err := fs.ReadFile(m.fs, m.opts.layoutPath)
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, m.opts.layoutPath, err)
	}
	layout, err = template.New(path.Base(m.opts.layoutPath)).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: layout: %v", ErrRenderFailed, err)
	}
	m.layout = layout
	return layout, nil
}

var _ Renderer = (*Markdown)(nil)
