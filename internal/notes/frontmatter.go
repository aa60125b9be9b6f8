package notes

import (
	"strings"

	"go.yaml.in/yaml/v3"
)

// ParseFrontmatter splits content into its YAML header and markdown body.
// Content without a leading "---" line, or with a header that does not
// parse as YAML, is treated as all body; a note is never rejected for a
// broken header.
func ParseFrontmatter(content string) (Frontmatter, string) {
	var fm Frontmatter

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		rest, ok = strings.CutPrefix(content, "---\r\n")
	}
	if !ok {
		return fm, content
	}

	header, body, found := cutFrontmatterEnd(rest)
	if !found {
		return fm, content
	}
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return Frontmatter{}, content
	}
	return fm, body
}

// cutFrontmatterEnd finds the closing "---" delimiter line.
func cutFrontmatterEnd(rest string) (header, body string, found bool) {
	for _, delim := range []string{"\n---\n", "\n---\r\n", "\r\n---\n", "\r\n---\r\n"} {
		if h, b, ok := strings.Cut(rest, delim); ok {
			return h, b, true
		}
	}
	// The closing delimiter may be the final line with no trailing newline.
	for _, delim := range []string{"\n---", "\r\n---"} {
		if h, b, ok := strings.Cut(rest, delim); ok && strings.TrimSpace(b) == "" {
			return h, "", true
		}
	}
	return "", "", false
}

// FormatFrontmatter renders a note with an explicit YAML header.
func FormatFrontmatter(fm Frontmatter, body string) (string, error) {
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(raw)
	b.WriteString("---\n")
	if body != "" {
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// titleFor derives the display title of a note: frontmatter title first,
// then the first markdown heading, then the file name without extension.
func titleFor(name string, content string) string {
	fm, body := ParseFrontmatter(content)
	if fm.Title != "" {
		return fm.Title
	}
	for rest := body; rest != ""; {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if after, ok := strings.CutPrefix(trimmed, "#"); ok {
			return strings.TrimSpace(strings.TrimLeft(after, "#"))
		}
		break
	}
	return strings.TrimSuffix(name, ".md")
}
