// Package filetree builds a bounded, deterministic snapshot of the workspace
// hierarchy. Enumeration is capped, build/vendor directories are excluded by
// glob, and paths are sorted before insertion so two runs over the same tree
// render identically. Touched files — those that contributed text to a
// context bundle — are marked in the rendering.
package filetree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultCap bounds how many paths one snapshot enumerates.
const DefaultCap = 200

// DefaultExcludes are glob patterns for directories that never appear in a
// snapshot.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/.git/**",
	"**/.venv/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
}

// Node is one entry in the workspace snapshot.
type Node struct {
	Name     string
	Path     string // absolute
	IsDir    bool
	Children []*Node
}

// Builder enumerates a workspace root into a Node tree.
type Builder struct {
	root     string
	cap      int
	excludes []glob.Glob
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCap overrides the enumeration cap.
func WithCap(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.cap = n
		}
	}
}

// WithExcludes replaces the default exclusion globs. Invalid patterns are
// dropped.
func WithExcludes(patterns []string) BuilderOption {
	return func(b *Builder) {
		b.excludes = compileGlobs(patterns)
	}
}

func compileGlobs(patterns []string) []glob.Glob {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue
		}
		globs = append(globs, g)
	}
	return globs
}

// NewBuilder creates a Builder rooted at root.
func NewBuilder(root string, opts ...BuilderOption) *Builder {
	b := &Builder{
		root:     root,
		cap:      DefaultCap,
		excludes: compileGlobs(DefaultExcludes),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)
	// Globs with a directory component need a leading path to anchor
	// against; test both the bare path and a rooted variant.
	for _, g := range b.excludes {
		if g.Match(slashed) || g.Match("/"+slashed+"/") {
			return true
		}
	}
	return false
}

// Build enumerates up to the cap of workspace paths and assembles the tree.
// The returned root node carries the workspace root's basename.
func (b *Builder) Build() (*Node, error) {
	if b.root == "" {
		return nil, fmt.Errorf("filetree: no workspace root")
	}

	var rels []string
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		rel, relErr := filepath.Rel(b.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if b.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		// Directories count against the cap too: the cap bounds total
		// nodes, not just leaves.
		if len(rels) >= b.cap {
			return filepath.SkipAll
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filetree: walk: %w", err)
	}

	sort.Strings(rels)

	rootNode := &Node{
		Name:  filepath.Base(b.root),
		Path:  b.root,
		IsDir: true,
	}
	for _, rel := range rels {
		b.insert(rootNode, rel)
	}
	return rootNode, nil
}

// insert adds one relative path to the tree, creating directory nodes on
// demand. Directory-ness comes from a stat call, not from path shape.
func (b *Builder) insert(root *Node, rel string) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	cur := root
	curPath := b.root
	for _, part := range parts {
		curPath = filepath.Join(curPath, part)
		child := findChild(cur, part)
		if child == nil {
			isDir := false
			if info, err := os.Stat(curPath); err == nil {
				isDir = info.IsDir()
			}
			child = &Node{Name: part, Path: curPath, IsDir: isDir}
			cur.Children = append(cur.Children, child)
		}
		cur = child
	}
}

func findChild(n *Node, name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Count returns the number of nodes in the tree, excluding the root.
func Count(n *Node) int {
	total := 0
	for _, c := range n.Children {
		total += 1 + Count(c)
	}
	return total
}

// Render writes the tree as indented text, directories first at each level,
// both groups sorted lexicographically. Touched paths get a trailing marker.
func Render(n *Node, touched map[string]bool) string {
	var sb strings.Builder
	renderNode(&sb, n, 0, touched)
	return sb.String()
}

func renderNode(sb *strings.Builder, n *Node, depth int, touched map[string]bool) {
	sb.WriteString(strings.Repeat("  ", depth))
	name := n.Name
	if n.IsDir {
		name += "/"
	}
	sb.WriteString(name)
	if touched[n.Path] {
		sb.WriteString(" *")
	}
	sb.WriteString("\n")

	children := append([]*Node(nil), n.Children...)
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].IsDir != children[j].IsDir {
			return children[i].IsDir
		}
		return children[i].Name < children[j].Name
	})
	for _, c := range children {
		renderNode(sb, c, depth+1, touched)
	}
}
