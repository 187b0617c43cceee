package config

// Default linking thresholds.  StrongMatch scores are on the 0..100 scale of
// the token-set scorer; TF-IDF similarity is cosine, 0..1.
const (
	DefaultStrongMatchThreshold      = 80.0
	DefaultStrongMatchDifferential   = 2.0
	DefaultSubstringMinLength        = 3
	DefaultTfIdfThreshold            = 0.7
	DefaultEmbeddingConfirmThreshold = 90.0
	DefaultMergeThreshold            = 70.0
)

// ApplyDefaults fills unset fields with platform defaults.
func ApplyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Linking.StrongMatchThreshold == 0 {
		c.Linking.StrongMatchThreshold = DefaultStrongMatchThreshold
	}
	if c.Linking.StrongMatchDifferential == 0 {
		c.Linking.StrongMatchDifferential = DefaultStrongMatchDifferential
	}
	if c.Linking.SubstringMinLength == 0 {
		c.Linking.SubstringMinLength = DefaultSubstringMinLength
	}
	if c.Linking.TfIdfThreshold == 0 {
		c.Linking.TfIdfThreshold = DefaultTfIdfThreshold
	}
	if c.Linking.EmbeddingConfirmThreshold == 0 {
		c.Linking.EmbeddingConfirmThreshold = DefaultEmbeddingConfirmThreshold
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "ontolink"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	for i := range c.Parsers {
		if c.Parsers[i].MergeThreshold == 0 {
			c.Parsers[i].MergeThreshold = DefaultMergeThreshold
		}
		if c.Parsers[i].Format == "" {
			c.Parsers[i].Format = "tsv"
		}
	}
}
