package ops

import (
	"errors"
	"testing"

	"stagehand/internal/document"
)

func mkdoc(t *testing.T, src string) *document.Doc {
	t.Helper()
	doc, err := document.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func scalarAt(t *testing.T, doc *document.Doc, path string) string {
	t.Helper()
	n, ok := doc.Get(path)
	if !ok {
		t.Fatalf("path %q not found", path)
	}
	return n.Value
}

func TestApplySetCreatesAndReplaces(t *testing.T) {
	doc := mkdoc(t, "jobs:\n  changes:\n    runs-on: old\n")
	err := Apply(doc, []Operation{
		{Path: "jobs.changes", Kind: Set, Value: document.Map(
			document.Entry{Key: "runs-on", Value: document.Str("ubuntu-latest")},
		)},
		{Path: "jobs.release", Kind: Set, Value: document.Map(
			document.Entry{Key: "needs", Value: document.StrSeq("tag")},
		)},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got := scalarAt(t, doc, "jobs.changes.runs-on"); got != "ubuntu-latest" {
		t.Fatalf("jobs.changes.runs-on = %q", got)
	}
	if _, ok := doc.Get("jobs.release.needs"); !ok {
		t.Fatalf("jobs.release not created")
	}
}

func TestApplyMergeUnionsIncomingWins(t *testing.T) {
	doc := mkdoc(t, "env:\n  A: keep\n  B: stale\n")
	err := Apply(doc, []Operation{
		{Path: "env", Kind: Merge, Value: document.Map(
			document.Entry{Key: "B", Value: document.Str("fresh")},
			document.Entry{Key: "C", Value: document.Str("added")},
		)},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got := scalarAt(t, doc, "env.A"); got != "keep" {
		t.Fatalf("env.A = %q, want keep", got)
	}
	if got := scalarAt(t, doc, "env.B"); got != "fresh" {
		t.Fatalf("env.B = %q, want fresh", got)
	}
	if got := scalarAt(t, doc, "env.C"); got != "added" {
		t.Fatalf("env.C = %q, want added", got)
	}
}

func TestApplyMergeOnScalarReplaces(t *testing.T) {
	doc := mkdoc(t, "env: plain\n")
	err := Apply(doc, []Operation{
		{Path: "env", Kind: Merge, Value: document.Map(
			document.Entry{Key: "A", Value: document.Str("v")},
		)},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got := scalarAt(t, doc, "env.A"); got != "v" {
		t.Fatalf("env.A = %q after merge over scalar", got)
	}
}

func TestApplyOverwriteDiscardsPriorSubtree(t *testing.T) {
	doc := mkdoc(t, "jobs:\n  tag:\n    stale-key: stale\n    runs-on: old\n")
	err := Apply(doc, []Operation{
		{Path: "jobs.tag", Kind: Overwrite, Value: document.Map(
			document.Entry{Key: "runs-on", Value: document.Str("ubuntu-latest")},
		)},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if _, ok := doc.Get("jobs.tag.stale-key"); ok {
		t.Fatalf("overwrite retained a stale key")
	}
	if got := scalarAt(t, doc, "jobs.tag.runs-on"); got != "ubuntu-latest" {
		t.Fatalf("jobs.tag.runs-on = %q", got)
	}
}

func TestApplyPreserveLeavesExistingAlone(t *testing.T) {
	doc := mkdoc(t, "name: my-pipeline\n")
	err := Apply(doc, []Operation{
		{Path: "name", Kind: Preserve, Required: true, Value: document.Str("default")},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got := scalarAt(t, doc, "name"); got != "my-pipeline" {
		t.Fatalf("preserve replaced existing value: %q", got)
	}
}

func TestApplyPreserveRequiredFillsDefault(t *testing.T) {
	doc := document.New()
	err := Apply(doc, []Operation{
		{Path: "name", Kind: Preserve, Required: true, Value: document.Str("default")},
		{Path: "optional", Kind: Preserve, Value: document.Str("never")},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got := scalarAt(t, doc, "name"); got != "default" {
		t.Fatalf("required preserve did not fill default: %q", got)
	}
	if _, ok := doc.Get("optional"); ok {
		t.Fatalf("non-required preserve created a key")
	}
}

func TestApplyConflictAbortsRemainingOperations(t *testing.T) {
	doc := mkdoc(t, "jobs: scalar\n")
	err := Apply(doc, []Operation{
		{Path: "jobs.changes", Kind: Set, Value: document.Str("v")},
		{Path: "after", Kind: Set, Value: document.Str("v")},
	})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if ce.Path != "jobs.changes" {
		t.Fatalf("ConflictError.Path = %q, want jobs.changes", ce.Path)
	}
	if _, ok := doc.Get("after"); ok {
		t.Fatalf("operation after the conflict was still applied")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{Set: "set", Merge: "merge", Overwrite: "overwrite", Preserve: "preserve"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
