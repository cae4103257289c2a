// Package generate ties the pieces together: gate, merge, atomic write,
// marker update, and the fixed action artifacts.
package generate

import (
	"io"
	"log"
	"path/filepath"

	"stagehand/internal/config"
	"stagehand/internal/fileio"
	"stagehand/internal/merge"
	"stagehand/internal/stages"
)

// DefaultOutputPath is the repository-relative pipeline file.
const DefaultOutputPath = ".github/workflows/pipeline.yml"

// markerFileName sits next to the generated pipeline.
const markerFileName = ".stagehand-state"

// Options configure a Generator. Zero values pick the defaults.
type Options struct {
	ConfigPath string
	OutputPath string
	Force      bool
	Logger     *log.Logger
}

// Generator runs one regeneration per Run call. It holds no state between
// runs beyond the on-disk marker.
type Generator struct {
	opts    Options
	markers *fileio.MarkerStore
}

// New builds a Generator.
func New(opts Options) *Generator {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultFileName
	}
	if opts.OutputPath == "" {
		opts.OutputPath = DefaultOutputPath
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	markerPath := filepath.Join(filepath.Dir(opts.OutputPath), markerFileName)
	return &Generator{opts: opts, markers: fileio.NewMarkerStore(markerPath)}
}

// Run loads the configuration and regenerates the pipeline file. On any
// error the prior file is left untouched. The returned status is merged,
// new, or unchanged; a gate skip reports unchanged without parsing.
func (g *Generator) Run() (merge.Status, error) {
	cfg, err := config.Load(g.opts.ConfigPath)
	if err != nil {
		return "", err
	}
	fingerprint := cfg.Fingerprint(stages.TemplateVersion)

	existing, exists, err := fileio.ReadIfExists(g.opts.OutputPath)
	if err != nil {
		return "", err
	}
	marker, err := g.markers.Load()
	if err != nil {
		return "", err
	}
	if !ShouldRegenerate(g.opts.Force, exists, fingerprint, marker) {
		g.opts.Logger.Printf("pipeline up to date, skipping (marker %.12s)", marker)
		return merge.StatusUnchanged, nil
	}

	res, err := merge.Regenerate(cfg, existing)
	if err != nil {
		return "", err
	}
	switch res.Status {
	case merge.StatusUnchanged:
		// Output is already byte-identical; the marker is left as-is.
		g.opts.Logger.Printf("pipeline unchanged, no write")
	default:
		if err := fileio.AtomicWrite(g.opts.OutputPath, res.Text); err != nil {
			return "", err
		}
		if err := g.markers.Save(fingerprint); err != nil {
			return "", err
		}
		g.opts.Logger.Printf("pipeline %s: jobs=%v updated=%v", res.Status, res.JobOrder, res.UpdatedJobs)
		if res.Diff != "" {
			g.opts.Logger.Printf("diff:\n%s", res.Diff)
		}
	}

	if err := g.writeActions(); err != nil {
		return "", err
	}
	return res.Status, nil
}
