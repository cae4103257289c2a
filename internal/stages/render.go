package stages

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"stagehand/internal/config"
	"stagehand/internal/document"
)

const (
	runnerImage    = "ubuntu-latest"
	checkoutAction = "actions/checkout@v4"
	filterAction   = "dorny/paths-filter@v3"
)

// Render builds the body for a generated job name. It only accepts names
// returned by Order for the same configuration and panics on anything else.
func Render(name string, cfg *config.Config) *yaml.Node {
	switch {
	case name == StageChanges:
		return renderChanges(cfg)
	case name == StageTag:
		return renderTag(cfg)
	case name == StagePromote:
		return renderPromote(cfg)
	case name == StageRelease:
		return renderRelease(cfg)
	case strings.HasPrefix(name, testPrefix):
		if d, ok := cfg.Domain(strings.TrimPrefix(name, testPrefix)); ok {
			return renderTest(d)
		}
	case strings.HasPrefix(name, deployPrefix):
		if d, ok := cfg.Domain(strings.TrimPrefix(name, deployPrefix)); ok {
			return renderDeploy(cfg, d)
		}
	}
	panic(fmt.Sprintf("stages: no template for job %q", name))
}

// renderChanges emits the change-detection job: one path-filter output per
// configured domain, consumed by the per-domain jobs.
func renderChanges(cfg *config.Config) *yaml.Node {
	outputs := make([]document.Entry, 0, len(cfg.Domains))
	var filters strings.Builder
	for _, d := range cfg.Domains {
		outputs = append(outputs, document.Entry{
			Key:   d.Name,
			Value: document.Str(fmt.Sprintf("${{ steps.filter.outputs.%s }}", d.Name)),
		})
		filters.WriteString(d.Name + ":\n")
		for _, p := range d.Paths {
			filters.WriteString(fmt.Sprintf("  - '%s'\n", p))
		}
	}
	return document.Map(
		document.Entry{Key: "runs-on", Value: document.Str(runnerImage)},
		document.Entry{Key: "outputs", Value: document.Map(outputs...)},
		document.Entry{Key: "steps", Value: document.Seq(
			document.Map(
				document.Entry{Key: "uses", Value: document.Str(checkoutAction)},
			),
			document.Map(
				document.Entry{Key: "id", Value: document.Str("filter")},
				document.Entry{Key: "uses", Value: document.Str(filterAction)},
				document.Entry{Key: "with", Value: document.Map(
					document.Entry{Key: "filters", Value: document.Literal(filters.String())},
				)},
			),
		)},
	)
}

func renderTest(d config.Domain) *yaml.Node {
	return document.Map(
		document.Entry{Key: "runs-on", Value: document.Str(runnerImage)},
		document.Entry{Key: "needs", Value: document.StrSeq(StageChanges)},
		document.Entry{Key: "if", Value: document.Str(fmt.Sprintf("needs.changes.outputs.%s == 'true'", d.Name))},
		document.Entry{Key: "steps", Value: document.Seq(
			document.Map(
				document.Entry{Key: "uses", Value: document.Str(checkoutAction)},
			),
			document.Map(
				document.Entry{Key: "name", Value: document.Str("Run tests")},
				document.Entry{Key: "run", Value: document.Str("make test-" + d.Name)},
			),
		)},
	)
}

func renderDeploy(cfg *config.Config, d config.Domain) *yaml.Node {
	needs := []string{StageChanges}
	if d.TestEnabled() {
		needs = append(needs, testPrefix+d.Name)
	}
	release := releaseBranch(cfg)
	return document.Map(
		document.Entry{Key: "runs-on", Value: document.Str(runnerImage)},
		document.Entry{Key: "needs", Value: document.StrSeq(needs...)},
		document.Entry{Key: "if", Value: document.Str(fmt.Sprintf(
			"needs.changes.outputs.%s == 'true' && github.ref == 'refs/heads/%s'", d.Name, release))},
		document.Entry{Key: "steps", Value: document.Seq(
			document.Map(
				document.Entry{Key: "uses", Value: document.Str(checkoutAction)},
			),
			document.Map(
				document.Entry{Key: "name", Value: document.Str("Deploy")},
				document.Entry{Key: "run", Value: document.Str("make deploy-" + d.Name)},
			),
		)},
	)
}

// renderTag emits the tagging job: derive the next version from history and
// push the tag. Runs only on the release branch, after the test jobs.
func renderTag(cfg *config.Config) *yaml.Node {
	needs := []string{StageChanges}
	for _, d := range cfg.Domains {
		if d.TestEnabled() {
			needs = append(needs, testPrefix+d.Name)
		}
	}
	script := "current=\"$(git describe --tags --abbrev=0 2>/dev/null || echo v0.0.0)\"\n" +
		"next=\"$(echo \"$current\" | awk -F. '{printf \"%s.%d\", $1\".\"$2, $3+1}')\"\n" +
		"git tag \"$next\"\n" +
		"git push origin \"$next\"\n"
	return document.Map(
		document.Entry{Key: "runs-on", Value: document.Str(runnerImage)},
		document.Entry{Key: "needs", Value: document.StrSeq(needs...)},
		document.Entry{Key: "if", Value: document.Str(fmt.Sprintf("github.ref == 'refs/heads/%s'", releaseBranch(cfg)))},
		document.Entry{Key: "steps", Value: document.Seq(
			document.Map(
				document.Entry{Key: "uses", Value: document.Str(checkoutAction)},
				document.Entry{Key: "with", Value: document.Map(
					document.Entry{Key: "fetch-depth", Value: document.Int(0)},
				)},
			),
			document.Map(
				document.Entry{Key: "name", Value: document.Str("Tag next version")},
				document.Entry{Key: "run", Value: document.Literal(script)},
			),
		)},
	)
}

// renderPromote emits one promotion step per consecutive branch pair in the
// flow, each opening a pull request into the next branch.
func renderPromote(cfg *config.Config) *yaml.Node {
	steps := []*yaml.Node{
		document.Map(
			document.Entry{Key: "uses", Value: document.Str(checkoutAction)},
		),
	}
	for i := 0; i+1 < len(cfg.BranchFlow); i++ {
		from, to := cfg.BranchFlow[i], cfg.BranchFlow[i+1]
		steps = append(steps, document.Map(
			document.Entry{Key: "name", Value: document.Str(fmt.Sprintf("Promote %s to %s", from, to))},
			document.Entry{Key: "if", Value: document.Str(fmt.Sprintf("github.ref == 'refs/heads/%s'", from))},
			document.Entry{Key: "run", Value: document.Str(fmt.Sprintf(
				"gh pr create --base %s --head %s --title 'Promote %s to %s' --fill || true", to, from, from, to))},
			document.Entry{Key: "env", Value: document.Map(
				document.Entry{Key: "GH_TOKEN", Value: document.Str("${{ github.token }}")},
			)},
		))
	}
	return document.Map(
		document.Entry{Key: "runs-on", Value: document.Str(runnerImage)},
		document.Entry{Key: "needs", Value: document.StrSeq(StageChanges)},
		document.Entry{Key: "steps", Value: document.Seq(steps...)},
	)
}

func renderRelease(cfg *config.Config) *yaml.Node {
	return document.Map(
		document.Entry{Key: "runs-on", Value: document.Str(runnerImage)},
		document.Entry{Key: "needs", Value: document.StrSeq(StageTag)},
		document.Entry{Key: "if", Value: document.Str(fmt.Sprintf("github.ref == 'refs/heads/%s'", releaseBranch(cfg)))},
		document.Entry{Key: "steps", Value: document.Seq(
			document.Map(
				document.Entry{Key: "uses", Value: document.Str(checkoutAction)},
				document.Entry{Key: "with", Value: document.Map(
					document.Entry{Key: "fetch-depth", Value: document.Int(0)},
				)},
			),
			document.Map(
				document.Entry{Key: "name", Value: document.Str("Create release")},
				document.Entry{Key: "run", Value: document.Str(
					`gh release create "$(git describe --tags --abbrev=0)" --generate-notes`)},
				document.Entry{Key: "env", Value: document.Map(
					document.Entry{Key: "GH_TOKEN", Value: document.Str("${{ github.token }}")},
				)},
			),
		)},
	)
}

// Triggers builds the default top-level "on" block: pushes to every branch
// in the flow plus pull requests. Installed once and preserved afterwards,
// so users may tune it by hand.
func Triggers(cfg *config.Config) *yaml.Node {
	return document.Map(
		document.Entry{Key: "push", Value: document.Map(
			document.Entry{Key: "branches", Value: document.StrSeq(cfg.BranchFlow...)},
		)},
		document.Entry{Key: "pull_request", Value: document.Map(
			document.Entry{Key: "branches", Value: document.StrSeq(cfg.BranchFlow...)},
		)},
	)
}

// releaseBranch is the final branch of the flow; tagging, releasing, and
// deploys key off it.
func releaseBranch(cfg *config.Config) string {
	return cfg.BranchFlow[len(cfg.BranchFlow)-1]
}
