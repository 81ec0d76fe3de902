package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/janelia-flyem/cleave/pkg/buildinfo"
)

// Execute runs the cleave CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "cleave",
		Short:        "Cleave splits over-merged segmentation bodies along supervoxel boundaries",
		Long:         `Cleave is a proofreading service and CLI for splitting over-merged neuron bodies in a DVID segmentation. Given seed supervoxels for each desired piece, it partitions the body's supervoxel adjacency graph and optionally writes the split back to the store.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCleaveCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// fatalHint wraps an error with a short operator hint on likely causes.
func fatalHint(err error, hint string) error {
	return fmt.Errorf("%w (%s)", err, hint)
}
