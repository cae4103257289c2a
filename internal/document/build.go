package document

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Node constructors for building subtrees by hand. Mappings built with Map
// keep the entry order they were written in.

// Entry is one key/value pair of a mapping built with Map.
type Entry struct {
	Key   string
	Value *yaml.Node
}

// Str returns a string scalar node.
func Str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// Literal returns a string scalar rendered in block literal style (|),
// used for multi-line scripts.
func Literal(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.LiteralStyle, Value: v}
}

// Bool returns a boolean scalar node.
func Bool(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

// Int returns an integer scalar node.
func Int(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

// Seq returns a sequence node over items.
func Seq(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

// StrSeq returns a sequence of string scalars.
func StrSeq(items ...string) *yaml.Node {
	nodes := make([]*yaml.Node, len(items))
	for i, s := range items {
		nodes[i] = Str(s)
	}
	return Seq(nodes...)
}

// Map returns a mapping node with entries in the given order.
func Map(entries ...Entry) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		n.Content = append(n.Content, strNode(e.Key), e.Value)
	}
	return n
}
