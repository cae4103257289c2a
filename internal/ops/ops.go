// Package ops applies ordered, path-addressed operations to a document.
package ops

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"stagehand/internal/document"
)

// Kind selects how an operation touches its target. The set is closed:
// Apply panics on an unknown kind instead of falling through to some
// accidental fifth behavior.
type Kind int

const (
	// Set installs the value, replacing any existing one in place.
	Set Kind = iota
	// Merge unions mapping keys when both sides are mappings (incoming
	// wins on conflict, extra existing keys are retained); otherwise it
	// behaves as Set.
	Merge
	// Overwrite replaces the entire subtree regardless of content.
	Overwrite
	// Preserve leaves an existing target untouched. When the target is
	// absent and the operation is Required, the value is installed as a
	// default.
	Preserve
)

func (k Kind) String() string {
	switch k {
	case Set:
		return "set"
	case Merge:
		return "merge"
	case Overwrite:
		return "overwrite"
	case Preserve:
		return "preserve"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operation is one path-addressed edit.
type Operation struct {
	Path     string
	Kind     Kind
	Value    *yaml.Node
	Required bool
	Comment  string
}

// ConflictError reports an operation whose path traverses a node that is
// not a mapping where one is required.
type ConflictError struct {
	Path string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ops: conflict at %q: %v", e.Path, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Apply runs operations strictly in order against doc; each operation may
// rely on structure created by an earlier one. The first conflict aborts.
// The document may already be partially modified at that point, so callers
// must discard it on error rather than serialize it.
func Apply(doc *document.Doc, operations []Operation) error {
	for _, op := range operations {
		if err := apply(doc, op); err != nil {
			return err
		}
	}
	return nil
}

func apply(doc *document.Doc, op Operation) error {
	existing, found := doc.Get(op.Path)
	switch op.Kind {
	case Set, Overwrite:
		if err := doc.Set(op.Path, op.Value, op.Comment); err != nil {
			return &ConflictError{Path: op.Path, Err: err}
		}
	case Merge:
		if found && existing.Kind == yaml.MappingNode && op.Value != nil && op.Value.Kind == yaml.MappingNode {
			mergeMapping(existing, op.Value)
			return nil
		}
		if err := doc.Set(op.Path, op.Value, op.Comment); err != nil {
			return &ConflictError{Path: op.Path, Err: err}
		}
	case Preserve:
		if found || !op.Required {
			return nil
		}
		if err := doc.Set(op.Path, op.Value, op.Comment); err != nil {
			return &ConflictError{Path: op.Path, Err: err}
		}
	default:
		panic(fmt.Sprintf("ops: unknown operation kind %d", int(op.Kind)))
	}
	return nil
}

// mergeMapping unions incoming into existing in place. Incoming wins on key
// conflicts; keys only present in existing keep their position and value.
func mergeMapping(existing, incoming *yaml.Node) {
	for i := 0; i+1 < len(incoming.Content); i += 2 {
		k, v := incoming.Content[i], incoming.Content[i+1]
		replaced := false
		for j := 0; j+1 < len(existing.Content); j += 2 {
			ek := existing.Content[j]
			if ek.Kind == yaml.ScalarNode && ek.Value == k.Value {
				existing.Content[j+1] = v
				replaced = true
				break
			}
		}
		if !replaced {
			existing.Content = append(existing.Content, k, v)
		}
	}
}
