// Package classname models hierarchical habitat class names. Classes are
// ordered paths of segments (e.g. major;minor;specific); the semicolon-joined
// string form only appears at file and prompt boundaries.
package classname

import "strings"

// Delimiter separates segments in the external string form.
const Delimiter = ";"

// Path is an ordered list of class name segments, most general first.
type Path []string

// Parse splits a delimited class string into a Path. Empty segments (from
// doubled delimiters or stray whitespace) are dropped.
func Parse(s string) Path {
	parts := strings.Split(s, Delimiter)
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		path = append(path, part)
	}
	return path
}

// String returns the delimiter-joined external form.
func (p Path) String() string {
	return strings.Join(p, Delimiter)
}

// Top returns the most general segment, or "" for an empty path.
func (p Path) Top() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Equal reports whether two paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// FileToken returns a filesystem-safe token for the path: segments joined by
// underscores, with slashes and spaces also flattened to underscores.
func (p Path) FileToken() string {
	token := strings.Join(p, "_")
	token = strings.ReplaceAll(token, "/", "_")
	token = strings.ReplaceAll(token, " ", "_")
	return token
}

// FromFileToken reverses FileToken for tokens produced from slash- and
// space-free segments (underscores become delimiters).
func FromFileToken(token string) Path {
	return Parse(strings.ReplaceAll(token, "_", Delimiter))
}

// ColorKey returns the normalized lookup key used when matching a class
// against an external color override table: lowercased top-level segment with
// spaces flattened to hyphens.
func (p Path) ColorKey() string {
	key := strings.ToLower(p.Top())
	return strings.ReplaceAll(key, " ", "-")
}

// Prompt renders the class as an embedding-model text prompt. A template
// containing "{class}" has the placeholder substituted; hierarchical names
// are rendered with ", " between segments for readability. A template without
// the placeholder is used as a prefix. An empty template yields the plain
// string form.
func (p Path) Prompt(template string) string {
	name := p.String()
	if template == "" {
		return name
	}
	if strings.Contains(template, "{class}") {
		if len(p) > 1 {
			name = strings.Join(p, ", ")
		}
		return strings.ReplaceAll(template, "{class}", name)
	}
	return template + " " + name
}
