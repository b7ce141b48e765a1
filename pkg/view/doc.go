// Package view renders named views for view routes.
//
// Components renders registered templ components. Markdown renders markdown
// files with YAML frontmatter through goldmark, optionally wrapped in an HTML
// layout. Raw HTML in markdown is dropped unless WithRawHTML is given, in
// which case the output is filtered through a bluemonday policy. Chain
// combines renderers and falls through on ErrViewNotFound.
//
//	r := view.Chain{
//	    view.Components{"home": pages.HomeView},
//	    view.NewMarkdown(docsFS, view.WithDir("docs"), view.WithLayout("layouts/doc.html")),
//	}
//	err := r.Render(ctx, w, "getting-started", map[string]any{"Version": "1.2"})
package view
