// Package cli implements the scaffoldstudio command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"scaffoldstudio/pkg/config"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
}

// NewRootCommand creates the root command with its global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scaffoldstudio",
		Short: "Analyze, optimize and mesh porous tissue-engineering scaffolds",
		Long: "scaffoldstudio measures scaffold micrographs against bone-tissue design criteria,\n" +
			"generates optimized freeze-cast, bioprinted or salt-leached geometries and\n" +
			"exports them as STL meshes with a JSON report.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				_ = cliCtx.Logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "scaffold.yaml", "config file path")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error), overrides the config file")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewOptimizeCmd(),
		NewMeshCmd(),
		NewGenerateCmd(),
		NewServeCmd(),
		NewConfigCmd(),
	)
	return cmd
}

// persistentPreRun loads config and builds the logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, &CLIContext{Config: cfg, Logger: logger}))
	return nil
}

// GetCLIContext extracts the CLIContext stored by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	if ctx := cmd.Context(); ctx != nil {
		if cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext); ok {
			return cliCtx, nil
		}
	}
	return nil, apperrors.Internal("CLI context not initialized")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if stage := apperrors.GetStage(err); stage != "" {
			fmt.Fprintf(os.Stderr, "Failed stage: %s\n", stage)
		}
		return 1
	}
	return 0
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
