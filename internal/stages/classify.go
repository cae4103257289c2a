// Package stages defines the canonical generated jobs of a pipeline: their
// names, their ordering, and their rendered bodies.
package stages

import (
	"strings"

	"stagehand/internal/config"
)

// TemplateVersion changes whenever a rendered job body changes shape. It is
// folded into the idempotency fingerprint so template upgrades invalidate
// stored markers even when the configuration is untouched.
const TemplateVersion = "v3"

// Fixed canonical stage names. "version" is a reserved name from earlier
// template generations; it is still recognized as generated (and removed on
// regeneration) but no current template emits it; tagging derives the
// version itself.
const (
	StageChanges = "changes"
	StageVersion = "version"
	StageTag     = "tag"
	StagePromote = "promote"
	StageRelease = "release"
)

const (
	testPrefix   = "test-"
	deployPrefix = "deploy-"
)

var fixedStages = []string{StageChanges, StageVersion, StageTag, StagePromote, StageRelease}

// Generated reports whether a job name belongs to the generator: one of the
// fixed stage names, or any test-/deploy- prefixed name. Prefixed names are
// claimed even when no configured domain matches, so the jobs of a removed
// domain are still recognized and deleted on the next regeneration.
// Classification looks only at the name, never at the job body, so a
// user-authored job that collides with a generated name is treated as
// generated and overwritten (or removed) on the next run.
func Generated(name string) bool {
	for _, f := range fixedStages {
		if name == f {
			return true
		}
	}
	return strings.HasPrefix(name, testPrefix) || strings.HasPrefix(name, deployPrefix)
}

// Classify splits job names into generated and user-authored sets,
// preserving input order within each set.
func Classify(names []string) (generated, user []string) {
	for _, n := range names {
		if Generated(n) {
			generated = append(generated, n)
		} else {
			user = append(user, n)
		}
	}
	return generated, user
}

// Order returns the jobs the current configuration generates, in canonical
// stage order: change detection, per-domain test/deploy pairs in
// configuration order, then tag, promote, release.
func Order(cfg *config.Config) []string {
	out := []string{StageChanges}
	for _, d := range cfg.Domains {
		if d.TestEnabled() {
			out = append(out, testPrefix+d.Name)
		}
		if d.Deployable {
			out = append(out, deployPrefix+d.Name)
		}
	}
	return append(out, StageTag, StagePromote, StageRelease)
}
