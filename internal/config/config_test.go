package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: payments
branch_flow: [develop, staging, main]
domains:
  - name: api
    paths: ["src/api/**"]
  - name: web
    paths: ["src/web/**"]
    testable: false
    deployable: true
`

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, "payments", cfg.Name)
	assert.Equal(t, []string{"develop", "staging", "main"}, cfg.BranchFlow)
	assert.Equal(t, []string{"api", "web"}, cfg.DomainNames())

	api, ok := cfg.Domain("api")
	require.True(t, ok)
	assert.True(t, api.TestEnabled(), "testable defaults to true")
	assert.False(t, api.Deployable)

	web, ok := cfg.Domain("web")
	require.True(t, ok)
	assert.False(t, web.TestEnabled())
	assert.True(t, web.Deployable)

	_, ok = cfg.Domain("db")
	assert.False(t, ok)
}

func TestParseDefaultsName(t *testing.T) {
	cfg, err := Parse([]byte("branch_flow: [develop, main]\ndomains:\n  - name: api\n    paths: [\"src/**\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, "pipeline", cfg.Name)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("branch_flow: [a, b]\nbranches: [oops]\n"))
	require.Error(t, err)
}

func TestParseValidationErrors(t *testing.T) {
	cases := map[string]string{
		"one branch":       "branch_flow: [main]\n",
		"duplicate branch": "branch_flow: [main, main]\n",
		"bad branch":       "branch_flow: [develop, \"-main\"]\n",
		"bad domain name":  "branch_flow: [a, b]\ndomains:\n  - name: API\n    paths: [\"x/**\"]\n",
		"duplicate domain": "branch_flow: [a, b]\ndomains:\n  - name: api\n    paths: [\"x/**\"]\n  - name: api\n    paths: [\"y/**\"]\n",
		"no paths":         "branch_flow: [a, b]\ndomains:\n  - name: api\n",
		"blank path":       "branch_flow: [a, b]\ndomains:\n  - name: api\n    paths: [\"  \"]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "absent.yaml")
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "payments", cfg.Name)
}

func TestFingerprint(t *testing.T) {
	a, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	b, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint("v3"), b.Fingerprint("v3"), "same config, same fingerprint")
	assert.NotEqual(t, a.Fingerprint("v3"), a.Fingerprint("v4"), "template version is part of the fingerprint")

	c, err := Parse([]byte(validYAML + "  - name: db\n    paths: [\"db/**\"]\n"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint("v3"), c.Fingerprint("v3"), "config change, new fingerprint")
}
