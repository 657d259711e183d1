package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/enhimg/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage the SQLite variant manifest",
}

var manifestImportCmd = &cobra.Command{
	Use:   "import [manifest.db] [input]",
	Short: "Load id<TAB>module lines into a manifest (stdin when input is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 2 {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer func() { _ = f.Close() }()
			in = f
		}

		store, err := manifest.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		start := time.Now()
		n, err := store.Import(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d variants into %s in %v.\n", n, args[0], time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestImportCmd)
	rootCmd.AddCommand(manifestCmd)
}
