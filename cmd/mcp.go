package cmd

import (
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/enhimg/internal/enhance"
	"github.com/agentic-research/enhimg/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the enhance_markup tool over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger()
		host, closeHost, err := openHost(cfg, osfs.New(cfg.Root))
		if err != nil {
			return err
		}
		defer func() { _ = closeHost() }()

		tr := enhance.NewTransformer(host, cfg.Options(), logger)
		logger.Info("serving MCP on stdio", "root", cfg.Root, "manifest", cfg.Manifest)
		return mcpserver.New(tr, Version, logger).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
