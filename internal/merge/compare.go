package merge

import (
	"encoding/json"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"gopkg.in/yaml.v3"

	"stagehand/internal/document"
)

// changedJobs returns the generated job names whose body in doc differs
// structurally from the prior snapshot. Comparison goes through JSON so
// scalar formatting and comments do not register as changes.
func changedJobs(doc *document.Doc, prior map[string]*yaml.Node, wanted []string) []string {
	var changed []string
	for _, n := range wanted {
		body, ok := doc.Get("jobs." + n)
		if !ok {
			continue
		}
		old, had := prior[n]
		if !had {
			changed = append(changed, n)
			continue
		}
		oldJSON, err1 := json.Marshal(nodeValue(old))
		newJSON, err2 := json.Marshal(nodeValue(body))
		if err1 != nil || err2 != nil || !jsonpatch.Equal(oldJSON, newJSON) {
			changed = append(changed, n)
		}
	}
	return changed
}

// nodeValue converts a YAML node to canonical Go values for comparison.
func nodeValue(n *yaml.Node) interface{} {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil
		case "!!bool":
			return strings.EqualFold(n.Value, "true")
		case "!!int":
			if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
				return i
			}
			return n.Value
		case "!!float":
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return f
			}
			return n.Value
		default:
			return n.Value
		}
	case yaml.MappingNode:
		m := map[string]interface{}{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Kind == yaml.ScalarNode {
				m[n.Content[i].Value] = nodeValue(n.Content[i+1])
			}
		}
		return m
	case yaml.SequenceNode:
		arr := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			arr = append(arr, nodeValue(c))
		}
		return arr
	default:
		return nil
	}
}
