// Package config loads and validates the pipeline configuration
// (stagehand.yaml). By the time a Config reaches the merge engine it is a
// fully validated, immutable value.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultFileName is the repository-relative configuration file name.
const DefaultFileName = "stagehand.yaml"

var (
	domainNameRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	branchNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)
)

// Domain is one named slice of the repository, identified by path globs,
// that drives generation of per-domain test/deploy jobs.
type Domain struct {
	Name       string   `yaml:"name"`
	Paths      []string `yaml:"paths"`
	Testable   *bool    `yaml:"testable"`
	Deployable bool     `yaml:"deployable"`
}

// TestEnabled reports whether a test job is generated for the domain.
// Omitted means testable.
func (d Domain) TestEnabled() bool {
	return d.Testable == nil || *d.Testable
}

// Config is the resolved pipeline configuration.
type Config struct {
	Name       string   `yaml:"name"`
	BranchFlow []string `yaml:"branch_flow"`
	Domains    []Domain `yaml:"domains"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates configuration YAML. Unknown and duplicate
// keys are rejected; decode errors carry the offending source line.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, errors.New(yaml.FormatError(err, false, true))
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = "pipeline"
	}
	for i := range c.Domains {
		if c.Domains[i].Testable == nil {
			t := true
			c.Domains[i].Testable = &t
		}
	}
}

func (c *Config) validate() error {
	if len(c.BranchFlow) < 2 {
		return fmt.Errorf("branch_flow needs at least 2 branches, got %d", len(c.BranchFlow))
	}
	seenBranch := map[string]bool{}
	for i, b := range c.BranchFlow {
		if !branchNameRe.MatchString(b) {
			return fmt.Errorf("branch_flow[%d]: invalid branch name %q", i, b)
		}
		if seenBranch[b] {
			return fmt.Errorf("branch_flow: duplicate branch %q", b)
		}
		seenBranch[b] = true
	}
	seenDomain := map[string]bool{}
	for i, d := range c.Domains {
		if !domainNameRe.MatchString(d.Name) {
			return fmt.Errorf("domains[%d]: invalid domain name %q", i, d.Name)
		}
		if seenDomain[d.Name] {
			return fmt.Errorf("domains: duplicate domain %q", d.Name)
		}
		seenDomain[d.Name] = true
		if len(d.Paths) == 0 {
			return fmt.Errorf("domains[%d] (%s): at least one path glob is required", i, d.Name)
		}
		for j, p := range d.Paths {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("domains[%d] (%s): paths[%d] is empty", i, d.Name, j)
			}
		}
	}
	return nil
}

// DomainNames returns the domain names in configuration order.
func (c *Config) DomainNames() []string {
	names := make([]string, len(c.Domains))
	for i, d := range c.Domains {
		names[i] = d.Name
	}
	return names
}

// Domain returns the domain with the given name.
func (c *Config) Domain(name string) (Domain, bool) {
	for _, d := range c.Domains {
		if d.Name == name {
			return d, true
		}
	}
	return Domain{}, false
}

// Fingerprint hashes the configuration together with the template version.
// Equal fingerprints mean regeneration would produce identical output.
func (c *Config) Fingerprint(templateVersion string) string {
	data, err := yaml.Marshal(c)
	if err != nil {
		// Config round-trips by construction; a marshal failure would be
		// a bug, and an empty fingerprint just forces regeneration.
		return ""
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte("\n"))
	h.Write([]byte(templateVersion))
	return hex.EncodeToString(h.Sum(nil))
}
