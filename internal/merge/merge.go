// Package merge regenerates a pipeline document from configuration while
// preserving user-authored jobs, their order among themselves, and their
// comments.
package merge

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"stagehand/internal/config"
	"stagehand/internal/document"
	"stagehand/internal/ops"
	"stagehand/internal/stages"
)

// Status reports what a regeneration did.
type Status string

const (
	StatusNew       Status = "new"
	StatusMerged    Status = "merged"
	StatusUnchanged Status = "unchanged"
)

// Result is the outcome of one regeneration.
type Result struct {
	Status   Status
	Text     []byte
	JobOrder []string
	// UpdatedJobs lists the generated jobs whose body differs from the
	// prior document (including newly added ones). Empty for fresh
	// generations.
	UpdatedJobs []string
	// Diff is a unified diff against the prior text, for logging. Only
	// populated when Status is merged.
	Diff string
}

// ParseError reports an existing pipeline document that is not well-formed.
// The merge is abandoned; the file on disk is left untouched.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("merge: existing pipeline is not valid YAML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const generatedJobComment = "generated by stagehand; edits here are overwritten"

// Regenerate builds the pipeline for cfg. existing is the raw text of the
// current pipeline file, or empty when none exists. On any error no output
// text is produced, so callers never write a partial result.
func Regenerate(cfg *config.Config, existing []byte) (*Result, error) {
	if len(bytes.TrimSpace(existing)) == 0 {
		return fresh(cfg)
	}

	doc, err := document.Parse(existing)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	priorNames := doc.Keys("jobs")
	generated, user := stages.Classify(priorNames)
	wanted := stages.Order(cfg)

	// Snapshot prior generated bodies before they are overwritten; the
	// change summary compares against these.
	prior := make(map[string]*yaml.Node, len(generated))
	for _, n := range generated {
		if body, ok := doc.Get("jobs." + n); ok {
			prior[n] = body
		}
	}

	operations := []ops.Operation{
		{Path: "name", Kind: ops.Preserve, Required: true, Value: document.Str(cfg.Name)},
		{Path: "on", Kind: ops.Preserve, Required: true, Value: stages.Triggers(cfg)},
	}
	for _, n := range wanted {
		operations = append(operations, ops.Operation{
			Path:    "jobs." + n,
			Kind:    ops.Overwrite,
			Value:   stages.Render(n, cfg),
			Comment: generatedJobComment,
		})
	}
	for _, n := range user {
		operations = append(operations, ops.Operation{Path: "jobs." + n, Kind: ops.Preserve})
	}
	if err := ops.Apply(doc, operations); err != nil {
		return nil, err
	}

	// Generated names no longer implied by the configuration (a removed
	// domain, a reserved legacy name) are dropped.
	wantedSet := make(map[string]bool, len(wanted))
	for _, n := range wanted {
		wantedSet[n] = true
	}
	for _, n := range generated {
		if !wantedSet[n] {
			doc.Delete("jobs." + n)
		}
	}

	doc.Reorder("jobs", append(append([]string{}, wanted...), user...))

	out, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	res := &Result{Text: out, JobOrder: doc.Keys("jobs")}
	if bytes.Equal(out, existing) {
		res.Status = StatusUnchanged
		return res, nil
	}
	res.Status = StatusMerged
	res.UpdatedJobs = changedJobs(doc, prior, wanted)
	res.Diff = unifiedDiff(existing, out)
	return res, nil
}

// fresh builds a pipeline document from scratch: generated jobs only, in
// canonical stage order.
func fresh(cfg *config.Config) (*Result, error) {
	doc := document.New()
	operations := []ops.Operation{
		{Path: "name", Kind: ops.Set, Value: document.Str(cfg.Name)},
		{Path: "on", Kind: ops.Set, Value: stages.Triggers(cfg)},
	}
	wanted := stages.Order(cfg)
	for _, n := range wanted {
		operations = append(operations, ops.Operation{
			Path:    "jobs." + n,
			Kind:    ops.Set,
			Value:   stages.Render(n, cfg),
			Comment: generatedJobComment,
		})
	}
	if err := ops.Apply(doc, operations); err != nil {
		return nil, err
	}
	out, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return &Result{Status: StatusNew, Text: out, JobOrder: doc.Keys("jobs")}, nil
}

func unifiedDiff(before, after []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "existing",
		ToFile:   "generated",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
