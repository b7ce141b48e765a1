package view

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// page is a markdown view split into frontmatter metadata and body.
type page struct {
	Metadata map[string]any
	Body     string
}

// parsePage extracts "---" delimited YAML frontmatter from content.
// Content without frontmatter is all body.
func parsePage(content []byte) (*page, error) {
	delimiter := []byte("---")

	if !bytes.HasPrefix(content, delimiter) {
		return &page{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, delimiter), "\n\r")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, delimiter)
	if end == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	front := rest[:end]
	body := rest[end+len(delimiter):]
	// One line break after the closing delimiter belongs to it.
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	metadata := map[string]any{}
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &metadata); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &page{Metadata: metadata, Body: string(body)}, nil
}
