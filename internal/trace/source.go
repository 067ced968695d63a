package trace

import (
	"strconv"
	"strings"
)

// Source identifies where a parsed value came from. Sources form an immutable,
// parent-linked chain that always terminates at a *Config or *None root.
type Source interface {
	// Parent returns the enclosing source, or nil for a root.
	Parent() Source
	// PathPart returns this node's own path element.
	PathPart() string
	// FullPath renders the complete path, e.g. "roles.yml: admin.indices.0.names".
	FullPath() string

	isSource()
}

// None is the root of values that were not read from any file.
type None struct{}

// Config is the root of values read from a configuration file.
type Config struct {
	file string
}

// AttributeSource is a named child of another source.
type AttributeSource struct {
	parent Source
	name   string
}

// ListEntry is an indexed child of another source.
type ListEntry struct {
	parent Source
	index  int
}

var none = &None{}

// NoSource returns the shared None root.
func NoSource() Source {
	return none
}

// NewConfig returns a root source for the given file name.
func NewConfig(file string) *Config {
	return &Config{file: file}
}

// NewAttribute returns a child source named name. A nil parent is treated as None.
func NewAttribute(parent Source, name string) *AttributeSource {
	if parent == nil {
		parent = none
	}

	return &AttributeSource{parent: parent, name: name}
}

// NewListEntry returns a child source for the list element at index.
func NewListEntry(parent Source, index int) *ListEntry {
	if parent == nil {
		parent = none
	}

	return &ListEntry{parent: parent, index: index}
}

func (*None) Parent() Source       { return nil }
func (*None) PathPart() string     { return "" }
func (n *None) FullPath() string   { return fullPath(n) }
func (*None) isSource()            {}
func (*Config) Parent() Source     { return nil }
func (c *Config) PathPart() string { return c.file }
func (c *Config) FullPath() string { return fullPath(c) }
func (*Config) isSource()          {}

// File returns the configuration file name.
func (c *Config) File() string {
	return c.file
}

func (a *AttributeSource) Parent() Source   { return a.parent }
func (a *AttributeSource) PathPart() string { return a.name }
func (a *AttributeSource) FullPath() string { return fullPath(a) }
func (*AttributeSource) isSource()          {}

// Name returns the attribute name, which may itself be dotted.
func (a *AttributeSource) Name() string {
	return a.name
}

func (l *ListEntry) Parent() Source   { return l.parent }
func (l *ListEntry) PathPart() string { return strconv.Itoa(l.index) }
func (l *ListEntry) FullPath() string { return fullPath(l) }
func (*ListEntry) isSource()          {}

// Index returns the list position.
func (l *ListEntry) Index() int {
	return l.index
}

// Root follows parent links up to the terminal *Config or *None node.
func Root(s Source) Source {
	if s == nil {
		return none
	}

	for s.Parent() != nil {
		s = s.Parent()
	}

	return s
}

// RelativePath renders the path below the root without the file prefix.
func RelativePath(s Source) string {
	return strings.Join(pathParts(s), ".")
}

func fullPath(s Source) string {
	rel := RelativePath(s)

	if cfg, ok := Root(s).(*Config); ok {
		if rel == "" {
			return cfg.file
		}

		return cfg.file + ": " + rel
	}

	return rel
}

// pathParts collects the non-root parts from the root downwards.
func pathParts(s Source) []string {
	var parts []string

	for cur := s; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		parts = append(parts, cur.PathPart())
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return parts
}
