package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/pipeline"
)

// newLinkCmd builds the link subcommand: populate the stores, then read one
// JSON document per line from the input, resolve every entity mention and
// write the linked documents back out, one JSON document per line.  A
// malformed or failing document is annotated and passed through rather than
// aborting the batch.
func newLinkCmd(opts *RootOptions) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link entity mentions in documents to ontology identifiers",
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

			metrics, collector, err := newMetrics(cfg, logger)
			if err != nil {
				return err
			}
			if collector != nil {
				mux := http.NewServeMux()
				mux.Handle("/metrics", collector.Handler())
				go func() {
					if serveErr := http.ListenAndServe(cfg.Metrics.Addr, mux); serveErr != nil {
						logger.Warn("metrics server stopped", logging.Err(serveErr))
					}
				}()
			}

			p := pipeline.New(cfg, logger, metrics)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := p.Populate(ctx); err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if inputPath != "" && inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("cannot open input file %q: %w", inputPath, err)
				}
				defer f.Close()
				in = f
			}
			return linkDocuments(p, in, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "jsonlines document file, or - for stdin")
	return cmd
}

// linkDocuments streams documents through the pipeline.  Decode failures
// produce a placeholder document carrying the processing exception, so output
// lines stay aligned with input lines.
func linkDocuments(p *pipeline.Pipeline, in io.Reader, out io.Writer, logger logging.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(out)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		doc := &document.Document{}
		if err := json.Unmarshal([]byte(line), doc); err != nil {
			logger.Warn("skipping malformed document",
				logging.Int("line", lineNo),
				logging.Err(err),
			)
			doc = document.New(fmt.Sprintf("line-%d", lineNo))
			doc.RecordProcessingException(err)
		} else {
			p.LinkDocument(doc)
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return scanner.Err()
}
