package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/agentic-research/enhimg/internal/enhance"
	"github.com/agentic-research/enhimg/internal/writeback"
)

var (
	outDir     string
	toStdout   bool
	sourceMaps bool
	tagName    string
	prefix     string
)

func init() {
	transformCmd.Flags().StringVarP(&outDir, "out", "o", "", "Write results under this directory instead of in place")
	transformCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print results instead of writing files")
	transformCmd.Flags().BoolVar(&sourceMaps, "sourcemap", false, "Write a .map file next to each result")
	transformCmd.Flags().StringVar(&tagName, "tag", "", "Element name to rewrite (default enhanced:img)")
	transformCmd.Flags().StringVar(&prefix, "prefix", "", "Placeholder identifier prefix")
	rootCmd.AddCommand(transformCmd)
}

var transformCmd = &cobra.Command{
	Use:   "transform [files...]",
	Short: "Rewrite target elements in component files",
	Long: `Rewrite target elements in component files.

File paths are relative to --root. Raster sources need a --manifest to
supply their variants; other sources are imported as-is.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tag") {
			cfg.Tag = tagName
		}
		if cmd.Flags().Changed("prefix") {
			cfg.PlaceholderPrefix = prefix
		}
		if cmd.Flags().Changed("sourcemap") {
			cfg.SourceMaps = sourceMaps
		}

		logger := newLogger()
		src := osfs.New(cfg.Root)
		host, closeHost, err := openHost(cfg, src)
		if err != nil {
			return err
		}
		defer func() { _ = closeHost() }()

		job := transformJob{
			tr:         enhance.NewTransformer(host, cfg.Options(), logger),
			src:        src,
			dst:        src,
			sourceMaps: cfg.SourceMaps,
			logger:     logger,
		}
		if outDir != "" {
			job.dst = osfs.New(outDir)
		}
		if toStdout {
			job.stdout = cmd.OutOrStdout()
		}
		return job.run(cmd.Context(), args)
	},
}

type transformJob struct {
	tr         *enhance.Transformer
	src, dst   billy.Filesystem
	stdout     io.Writer // non-nil prints instead of writing
	sourceMaps bool
	logger     *slog.Logger
}

func (j *transformJob) run(ctx context.Context, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	var rewritten int
	for _, name := range files {
		name = filepath.ToSlash(filepath.Clean(name))
		n, err := j.file(ctx, name)
		if err != nil {
			return err
		}
		rewritten += n
	}
	j.logger.Info("done", "files", len(files), "rewritten", rewritten, "elapsed", time.Since(start))
	return nil
}

func (j *transformJob) file(ctx context.Context, name string) (int, error) {
	source, err := util.ReadFile(j.src, name)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	out, err := j.tr.Transform(ctx, name, source)
	if err != nil {
		return 0, err
	}

	if j.stdout != nil {
		_, err := io.WriteString(j.stdout, out.Code)
		return out.Stats.Rewritten, err
	}
	if !out.Changed && j.dst == j.src {
		j.logger.Debug("unchanged", "file", name)
		return 0, nil
	}
	if err := writeback.WriteFile(j.dst, name, []byte(out.Code)); err != nil {
		return 0, err
	}
	if j.sourceMaps {
		data, err := out.SourceMap().JSON()
		if err != nil {
			return 0, fmt.Errorf("encode source map for %s: %w", name, err)
		}
		if err := writeback.WriteFile(j.dst, name+".map", data); err != nil {
			return 0, err
		}
	}
	return out.Stats.Rewritten, nil
}
