package generate

// ShouldRegenerate is the pre-merge gate. Regeneration runs when it is
// forced, when no pipeline file exists yet, or when the configuration and
// template fingerprint no longer matches the stored marker. It runs before
// any parsing so an up-to-date pipeline costs nothing.
func ShouldRegenerate(force, fileExists bool, fingerprint, marker string) bool {
	return force || !fileExists || fingerprint != marker
}
