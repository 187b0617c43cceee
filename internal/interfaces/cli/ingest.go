package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/ontolink/internal/config"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ontolink/internal/pipeline"
)

// ingestSummary is the per-parser result reported after population.
type ingestSummary struct {
	Parser string `json:"parser"`
	Terms  int    `json:"terms"`
	IDs    int    `json:"ids"`
}

// newIngestCmd builds the ingest subcommand: populate the stores from every
// configured parser, apply curations, and report what was loaded.  Used to
// validate ontology releases and curation files before deployment.
func newIngestCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Ingest and curate all configured ontologies, then report store contents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			p := pipeline.New(cfg, logger, nil)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := p.Populate(ctx); err != nil {
				return err
			}

			summaries := make([]ingestSummary, 0, len(cfg.Parsers))
			for _, pc := range cfg.Parsers {
				summaries = append(summaries, ingestSummary{
					Parser: pc.Name,
					Terms:  p.SynonymStore().Count(pc.Name),
					IDs:    p.MetadataStore().Count(pc.Name),
				})
			}
			if opts.OutputFormat == "json" {
				return printResult(cmd, "json", summaries)
			}
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d terms, %d ids\n", s.Parser, s.Terms, s.IDs)
			}
			return nil
		},
	}
}

// newMetrics builds the engine metrics when exposition is enabled.
func newMetrics(cfg *config.Config, logger logging.Logger) (*prometheus.LinkingMetrics, prometheus.MetricsCollector, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return prometheus.NewLinkingMetrics(collector), collector, nil
}
