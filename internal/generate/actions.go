package generate

import (
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"stagehand/internal/fileio"
)

// Fixed reusable action definitions written beside the workflow. They are
// generated-only artifacts: always overwritten, never merged.

const detectChangesAction = `name: detect-changes
description: Report whether any of the given path globs changed
inputs:
  filters:
    description: paths-filter style filter block
    required: true
outputs:
  matches:
    description: JSON map of filter name to true/false
    value: ${{ steps.filter.outputs.changes }}
runs:
  using: composite
  steps:
    - id: filter
      uses: dorny/paths-filter@v3
      with:
        filters: ${{ inputs.filters }}
`

const computeVersionAction = `name: compute-version
description: Derive the next patch version from the latest tag
outputs:
  value:
    description: next version, e.g. v1.4.2
    value: ${{ steps.next.outputs.value }}
runs:
  using: composite
  steps:
    - id: next
      shell: bash
      run: |
        current="$(git describe --tags --abbrev=0 2>/dev/null || echo v0.0.0)"
        next="$(echo "$current" | awk -F. '{printf "%s.%d", $1"."$2, $3+1}')"
        echo "value=$next" >> "$GITHUB_OUTPUT"
`

// writeActions writes the reusable action files under .github/actions,
// concurrently since they are independent of one another and of the
// pipeline file.
func (g *Generator) writeActions() error {
	actionsDir := filepath.Join(filepath.Dir(g.opts.OutputPath), "..", "actions")
	artifacts := map[string]string{
		filepath.Join(actionsDir, "detect-changes", "action.yml"):  detectChangesAction,
		filepath.Join(actionsDir, "compute-version", "action.yml"): computeVersionAction,
	}

	var eg errgroup.Group
	for path, content := range artifacts {
		path, content := path, content
		eg.Go(func() error {
			return fileio.AtomicWrite(path, []byte(content))
		})
	}
	return eg.Wait()
}
