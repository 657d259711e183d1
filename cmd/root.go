package cmd

import (
	"fmt"
	"log/slog"
	"os"

	billy "github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"

	"github.com/agentic-research/enhimg/internal/assets"
	"github.com/agentic-research/enhimg/internal/config"
	"github.com/agentic-research/enhimg/internal/enhance"
	"github.com/agentic-research/enhimg/internal/manifest"
)

// Version is stamped at build time.
var Version = "dev"

var (
	configPath   string
	rootDir      string
	manifestPath string
	verbose      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an .hcl or .yaml config file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root that image references resolve against")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "", "SQLite variant manifest to load image metadata from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each element decision")
}

var rootCmd = &cobra.Command{
	Use:           "enhimg",
	Short:         "Rewrite <enhanced:img> elements into responsive <picture> markup",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config when given and applies the persistent flags on
// top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("root") {
		cfg.Root = rootDir
	}
	if cmd.Flags().Changed("manifest") {
		cfg.Manifest = manifestPath
	}
	return cfg, nil
}

// openHost builds the resolution host for cfg on fs. With a manifest the
// host can load variants; without one only non-raster sources are usable.
// The returned close func is never nil.
func openHost(cfg *config.Config, fs billy.Filesystem) (enhance.Host, func() error, error) {
	files := assets.NewFSHost(fs)
	if cfg.Manifest == "" {
		return files, func() error { return nil }, nil
	}
	store, err := manifest.Open(cfg.Manifest)
	if err != nil {
		return nil, nil, err
	}
	return files.WithLoader(store), store.Close, nil
}
