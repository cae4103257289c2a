// Package document is an ordered, comment-preserving YAML document model.
// The tree is a plain gopkg.in/yaml.v3 node graph whose top level is a
// mapping; key order and attached comments survive a parse/serialize round
// trip, which is what lets the merger rewrite some subtrees while leaving
// everything else alone.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Doc wraps a YAML document whose top level is a mapping. Every child node
// is owned by exactly one parent Content slice; documents never share
// subtrees.
type Doc struct {
	root *yaml.Node // DocumentNode
}

// New returns an empty mapping document.
func New() *Doc {
	return &Doc{root: &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}}
}

// Parse reads YAML data. Empty (or all-whitespace) input yields an empty
// mapping document rather than an error.
func Parse(data []byte) (*Doc, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}
	var tmp yaml.Node
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return nil, fmt.Errorf("document: parse YAML: %w", err)
	}
	if tmp.Kind != yaml.DocumentNode || len(tmp.Content) == 0 || tmp.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document: top-level YAML is not a mapping")
	}
	return &Doc{root: &tmp}, nil
}

// Marshal encodes the document with 2-space indentation.
func (d *Doc) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Root returns the top-level mapping node.
func (d *Doc) Root() *yaml.Node {
	return d.root.Content[0]
}

// PathError reports a dot-path whose traversal hit an existing node that is
// not a mapping where one is required.
type PathError struct {
	Path    string
	Segment string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("document: path %q: segment %q is not a mapping", e.Path, e.Segment)
}

// Get descends dot-separated mapping keys. A missing or non-traversable
// segment is reported as not found, never as an error.
func (d *Doc) Get(path string) (*yaml.Node, bool) {
	cur := d.Root()
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		if cur.Kind != yaml.MappingNode {
			return nil, false
		}
		v := childValue(cur, seg)
		if v == nil {
			return nil, false
		}
		if i == len(segs)-1 {
			return v, true
		}
		cur = v
	}
	return nil, false
}

// Set installs value at path, creating missing intermediate mappings. When
// the final key already exists its value is replaced in place (position
// kept); a new key is appended at the end of its parent mapping. A
// non-empty comment becomes the leading comment of the entry; an empty one
// leaves any existing comment untouched.
func (d *Doc) Set(path string, value *yaml.Node, comment string) error {
	segs := strings.Split(path, ".")
	cur := d.Root()
	for _, seg := range segs[:len(segs)-1] {
		v := childValue(cur, seg)
		if v == nil {
			v = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			cur.Content = append(cur.Content, strNode(seg), v)
		}
		if v.Kind != yaml.MappingNode {
			return &PathError{Path: path, Segment: seg}
		}
		cur = v
	}

	last := segs[len(segs)-1]
	for i := 0; i+1 < len(cur.Content); i += 2 {
		k := cur.Content[i]
		if k.Kind == yaml.ScalarNode && k.Value == last {
			cur.Content[i+1] = value
			if comment != "" {
				k.HeadComment = comment
			}
			return nil
		}
	}
	key := strNode(last)
	if comment != "" {
		key.HeadComment = comment
	}
	cur.Content = append(cur.Content, key, value)
	return nil
}

// Delete removes the key addressed by path from its parent mapping. Missing
// paths are a no-op.
func (d *Doc) Delete(path string) {
	segs := strings.Split(path, ".")
	cur := d.Root()
	for _, seg := range segs[:len(segs)-1] {
		v := childValue(cur, seg)
		if v == nil || v.Kind != yaml.MappingNode {
			return
		}
		cur = v
	}
	last := segs[len(segs)-1]
	for i := 0; i+1 < len(cur.Content); i += 2 {
		k := cur.Content[i]
		if k.Kind == yaml.ScalarNode && k.Value == last {
			cur.Content = append(cur.Content[:i], cur.Content[i+2:]...)
			return
		}
	}
}

// Reorder rearranges the direct children of the mapping at path to match
// order. Keys present but not listed keep their prior relative order and
// are appended after the listed ones. path "" addresses the root mapping.
func (d *Doc) Reorder(path string, order []string) {
	target := d.Root()
	if path != "" {
		n, ok := d.Get(path)
		if !ok {
			return
		}
		target = n
	}
	if target.Kind != yaml.MappingNode {
		return
	}

	content := target.Content
	out := make([]*yaml.Node, 0, len(content))
	used := make(map[int]bool, len(content)/2)
	for _, want := range order {
		for i := 0; i+1 < len(content); i += 2 {
			k := content[i]
			if !used[i] && k.Kind == yaml.ScalarNode && k.Value == want {
				out = append(out, k, content[i+1])
				used[i] = true
				break
			}
		}
	}
	for i := 0; i+1 < len(content); i += 2 {
		if !used[i] {
			out = append(out, content[i], content[i+1])
		}
	}
	target.Content = out
}

// Keys returns the keys of the mapping at path in document order. path ""
// addresses the root mapping.
func (d *Doc) Keys(path string) []string {
	target := d.Root()
	if path != "" {
		n, ok := d.Get(path)
		if !ok {
			return nil
		}
		target = n
	}
	if target.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(target.Content)/2)
	for i := 0; i+1 < len(target.Content); i += 2 {
		if target.Content[i].Kind == yaml.ScalarNode {
			keys = append(keys, target.Content[i].Value)
		}
	}
	return keys
}

func childValue(mapNode *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		k := mapNode.Content[i]
		if k.Kind == yaml.ScalarNode && k.Value == key {
			return mapNode.Content[i+1]
		}
	}
	return nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
