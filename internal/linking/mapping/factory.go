package mapping

import (
	"strings"

	"github.com/turtacn/ontolink/internal/database"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
)

// StripURL reduces an IRI identifier to its final path or fragment segment.
// Plain codes pass through unchanged.
func StripURL(id string) string {
	if !strings.Contains(id, "://") {
		return id
	}
	trimmed := strings.TrimRight(id, "/#")
	if i := strings.LastIndexAny(trimmed, "/#"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Factory materialises Mapping records from equivalence classes, attaching
// default labels and provenance metadata from the metadata store.
type Factory struct {
	metadata *database.MetadataStore
}

// NewFactory returns a factory backed by the given metadata store.
func NewFactory(metadata *database.MetadataStore) *Factory {
	return &Factory{metadata: metadata}
}

// Create emits one Mapping per member id of set.
func (f *Factory) Create(
	set equivalence.EquivalentIDSet,
	parserName string,
	confidence equivalence.LinkConfidence,
	mappingStrategy string,
	disambiguationStrategy string,
) []equivalence.Mapping {
	out := make([]equivalence.Mapping, 0, set.Size())
	for _, pair := range set.Pairs() {
		label := f.metadata.DefaultLabel(parserName, pair.ID)
		var extra map[string]interface{}
		if fields, err := f.metadata.Get(parserName, pair.ID); err == nil {
			for key := range fields {
				if key == database.DefaultLabelKey {
					continue
				}
				if extra == nil {
					extra = make(map[string]interface{})
				}
				extra[key] = fields[key]
			}
		}
		out = append(out, equivalence.Mapping{
			DefaultLabel:           label,
			ID:                     StripURL(pair.ID),
			Source:                 pair.Source,
			ParserName:             parserName,
			Confidence:             confidence,
			MappingStrategy:        mappingStrategy,
			DisambiguationStrategy: disambiguationStrategy,
			Metadata:               extra,
		})
	}
	return out
}
