// Package config defines the configuration structures for the OntoLink
// engine.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"

	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
)

// ParserConfig describes one ontology parser: where its synonym table lives
// and how its identifiers are grouped.
type ParserConfig struct {
	// Name is the store namespace of the parser, unique per deployment.
	Name string `mapstructure:"name"`

	// Source is the ontology source recorded on every id (e.g. "MONDO").
	Source string `mapstructure:"source"`

	// EntityClass scopes normalization (e.g. "disease", "gene").
	EntityClass string `mapstructure:"entity_class"`

	// Format selects the row source: "tsv" or "jsonlines".
	Format string `mapstructure:"format"`

	// Path is the synonym table file.
	Path string `mapstructure:"path"`

	// CurationsPath is an optional jsonlines curation file.
	CurationsPath string `mapstructure:"curations_path"`

	// MergeThreshold is the similarity floor for merging ids during
	// grouping, on the scorer's scale.
	MergeThreshold float64 `mapstructure:"merge_threshold"`

	// OneIDPerSet disables similarity merging entirely, for ontologies
	// whose symbols collide across unrelated concepts.
	OneIDPerSet bool `mapstructure:"one_id_per_set"`
}

// LinkingConfig holds the thresholds of the mapping and disambiguation
// chains.
type LinkingConfig struct {
	// StrongMatchThreshold is the search score floor for StrongMatch.
	StrongMatchThreshold float64 `mapstructure:"strong_match_threshold"`

	// StrongMatchDifferential is how far below the best observed score a
	// candidate may sit and still be kept.
	StrongMatchDifferential float64 `mapstructure:"strong_match_differential"`

	// SubstringMinLength is the minimum term norm length for substring
	// matching.
	SubstringMinLength int `mapstructure:"substring_min_length"`

	// TfIdfThreshold is the minimum cosine similarity for TF-IDF
	// disambiguation to commit.
	TfIdfThreshold float64 `mapstructure:"tfidf_threshold"`

	// EmbeddingConfirmThreshold is the similarity floor of the boolean
	// confirmation scorer.
	EmbeddingConfirmThreshold float64 `mapstructure:"embedding_confirm_threshold"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Addr      string `mapstructure:"addr"`
}

// Config is the root configuration.
type Config struct {
	Log     logging.Config `mapstructure:"log"`
	Parsers []ParserConfig `mapstructure:"parsers"`
	Linking LinkingConfig  `mapstructure:"linking"`
	Metrics MetricsConfig  `mapstructure:"metrics"`

	// GlobalActionsPath is an optional JSON file of parser-wide id drops.
	GlobalActionsPath string `mapstructure:"global_actions_path"`
}

// Validate checks structural soundness of the configuration.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Parsers))
	for i, p := range c.Parsers {
		if p.Name == "" {
			return fmt.Errorf("config: parser %d has no name", i)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("config: duplicate parser name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Path == "" {
			return fmt.Errorf("config: parser %q has no path", p.Name)
		}
		switch p.Format {
		case "tsv", "jsonlines":
		default:
			return fmt.Errorf("config: parser %q has unknown format %q", p.Name, p.Format)
		}
	}
	if c.Linking.StrongMatchThreshold < 0 {
		return fmt.Errorf("config: strong_match_threshold must be non-negative")
	}
	if c.Linking.TfIdfThreshold < 0 || c.Linking.TfIdfThreshold > 1 {
		return fmt.Errorf("config: tfidf_threshold must be within [0, 1]")
	}
	return nil
}
