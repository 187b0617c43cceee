// Package cli implements the ontolink command line interface: the root
// command with global flags and the ingest/link subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ontolink/internal/config"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
}

// NewRootCommand creates the root cobra command with global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ontolink",
		Short: "OntoLink, an ontology-backed biomedical entity linking engine",
		Long: "OntoLink ingests flat ontology synonym tables, reconciles them with\n" +
			"externally authored curations and resolves entity mentions in documents\n" +
			"to ontology identifiers through a chain of mapping and disambiguation\n" +
			"strategies.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./ontolink.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(
		newIngestCmd(opts),
		newLinkCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// newVersionCmd builds the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ontolink %s (commit: %s, built: %s)\n",
				Version, GitCommit, BuildDate)
		},
	}
}

// Execute is the entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// loadConfig resolves configuration with priority: --config flag, then
// ./ontolink.yaml if present, then environment variables alone.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		if _, err := os.Stat("ontolink.yaml"); err == nil {
			path = "ontolink.yaml"
		}
	}
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLogger builds the CLI logger, writing to stderr so stdout stays free
// for command output.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	logCfg := cfg.Log
	logCfg.OutputPaths = []string{"stderr"}
	return logging.New(logCfg)
}

// printResult writes data to the command's stdout in the selected format.
func printResult(cmd *cobra.Command, format string, data interface{}) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}
