package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/saltyorg/rtsweep/internal/config"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/logging"
	"github.com/saltyorg/rtsweep/internal/manifest"
	"github.com/saltyorg/rtsweep/internal/metrics"
	"github.com/saltyorg/rtsweep/internal/sink"
	"github.com/saltyorg/rtsweep/internal/summary"
	"github.com/saltyorg/rtsweep/internal/template"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an ensemble of input files",
	Long: `Generate an ensemble of input files from a template and a sweep config.

Each run is written to its own directory together with the namelist files,
the thermodynamic database and the temperature file the template reads.
With a restart_chain, every run directory holds one input file per stage.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(GetConfigPath())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return generate(cmd.Context(), cfg)
	},
}

var (
	generateDryRun bool
	generateIndex  bool
)

func init() {
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "build every run but write nothing")
	generateCmd.Flags().BoolVar(&generateIndex, "index", true, "update the README.md index in the output location")
	rootCmd.AddCommand(generateCmd)
}

func generate(ctx context.Context, cfg *config.Config) error {
	logger := logging.FromContext(ctx)
	start := time.Now()

	p, err := loadPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("generating ensemble", "template", cfg.TemplatePath(), "runs", cfg.NumberOfFiles, "stages", cfg.Stages(), "seed", p.seed)

	runs, err := p.build(ctx)
	if err != nil {
		return fmt.Errorf("building runs: %w", err)
	}

	if generateDryRun {
		files := 0
		for _, rf := range runs {
			files += len(rf)
		}
		fmt.Printf("✅ Dry run built %d input files for %d runs\n", files, len(runs))
		return nil
	}

	out, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	layout, err := template.NewLayout(cfg.Layout.RunDir, cfg.Layout.FileName, cfg.Layout.StageFileName)
	if err != nil {
		return fmt.Errorf("parsing layout: %w", err)
	}
	writer, err := sink.NewWriter(out, layout, copies(ctx, cfg, p.template)...)
	if err != nil {
		return err
	}

	m := metrics.New()
	for _, w := range p.template.Warnings {
		m.Warnings.WithLabelValues(w.Block).Inc()
	}

	order := slices.Sorted(maps.Keys(runs))
	outputs := make([]*sink.Output, len(order))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, run := range order {
		g.Go(func() error {
			began := time.Now()
			res, err := writer.WriteRun(gctx, runs[run])
			if err != nil {
				return fmt.Errorf("writing run %d: %w", run, err)
			}
			values := 0
			for _, in := range res.Inputs {
				values += len(p.plan.Assignments(run, in.Stage))
			}
			m.ObserveRun(len(res.Inputs)+len(res.Extras), values, time.Since(began))
			outputs[i] = res
			logger.Debug("run written", "run", run, "dir", res.Dir, "files", len(res.Inputs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sum := &summary.Summary{
		Template: cfg.TemplatePath(),
		Seed:     p.seed,
		Stages:   cfg.Stages(),
		Missing:  p.template.Missing,
	}
	for _, w := range p.template.Warnings {
		sum.Warnings = append(sum.Warnings, w.String())
	}
	var records []manifest.Record
	for _, res := range outputs {
		for _, in := range res.Inputs {
			values := p.plan.Assignments(res.Run, in.Stage)
			if IsVerbose() {
				fmt.Printf("  run %d: %s (%d edits)\n", res.Run, in.Location, in.Edits)
			}
			sum.Add(summary.RunResult{
				Run:      res.Run,
				Stage:    in.Stage,
				Location: in.Location,
				Edits:    in.Edits,
				Values:   values,
			})
			records = append(records, manifest.Record{
				Run:      res.Run,
				Stage:    in.Stage,
				Dir:      res.Dir,
				Location: in.Location,
				Edits:    in.Edits,
				Values:   values,
			})
		}
	}

	if path := cfg.ManifestPath(); path != "" {
		if err := recordManifest(ctx, path, cfg, p.seed, records); err != nil {
			return err
		}
		logger.Info("manifest updated", "path", path, "records", len(records))
	}

	if generateIndex {
		if err := writeIndex(ctx, out, sum.Markdown()); err != nil {
			return err
		}
	}
	if err := sum.WriteGitHubSummary(); err != nil {
		logger.Warn("writing GitHub summary failed", "error", err)
	}

	m.Succeeded(time.Now())
	if path := cfg.MetricsPath(); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			return err
		}
	}

	fmt.Printf("✅ Wrote %d input files for %d runs to %s in %s\n",
		len(records), len(outputs), out.Location(""), time.Since(start).Round(time.Millisecond))
	return nil
}

func openSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	s3cfg := cfg.Output.S3
	if s3cfg == nil {
		return sink.NewFS(cfg.OutputDir()), nil
	}
	s, err := sink.NewS3(ctx, sink.S3Config{
		Bucket:    s3cfg.Bucket,
		Prefix:    s3cfg.Prefix,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		PathStyle: s3cfg.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("opening s3 output: %w", err)
	}
	return s, nil
}

// copies lists the files every run directory gets verbatim: the database and
// the temperature file the template reads, if it exists next to the template.
func copies(ctx context.Context, cfg *config.Config, t *inputfile.Template) []string {
	var out []string
	if db := cfg.DatabasePath(); db != "" {
		out = append(out, db)
	}
	if name, ok := t.TemperatureFile(); ok {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(cfg.TemplatePath()), name)
		}
		if _, err := os.Stat(path); err != nil {
			logging.FromContext(ctx).Warn("temperature file not found, not copied", "path", path)
		} else {
			out = append(out, path)
		}
	}
	return out
}

func recordManifest(ctx context.Context, path string, cfg *config.Config, seed uint64, records []manifest.Record) error {
	store, err := manifest.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.BeginSweep(ctx, manifest.Sweep{
		Template:  cfg.TemplatePath(),
		Seed:      seed,
		Runs:      cfg.NumberOfFiles,
		Stages:    cfg.Stages(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return store.Record(ctx, id, records)
}

// writeIndex updates README.md at the output root. Local indexes keep any
// text outside the managed section; object stores get the section alone.
func writeIndex(ctx context.Context, out sink.Sink, content string) error {
	if fs, ok := out.(*sink.FS); ok {
		return summary.UpdateIndexFile(filepath.Join(fs.Root, "README.md"), content)
	}
	return out.Put(ctx, "README.md", []byte(summary.CreateManagedSection(summary.SectionName, content)))
}
