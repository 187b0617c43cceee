// Package document holds the minimal document model the linking engine
// needs: a document is a bag of entity mentions, each of which accumulates
// Mapping records as the strategy chain resolves it.  Offset bookkeeping and
// section structure live upstream.
package document

import (
	"github.com/turtacn/ontolink/internal/domain/equivalence"
)

// ProcessingExceptionKey is the metadata key under which batch-level callers
// record a failure affecting a document instead of crashing the batch.
const ProcessingExceptionKey = "processing_exception"

// Entity is one mention of something in a document, as produced by the
// upstream NER step.
type Entity struct {
	// Match is the raw mention text as it appears in the document.
	Match string `json:"match"`

	// MatchNorm is the normalized form of Match.
	MatchNorm string `json:"match_norm"`

	// EntityClass is the NER class of the mention (e.g. "gene", "disease").
	EntityClass string `json:"entity_class"`

	// Mappings accumulates the resolved concept records.
	Mappings []equivalence.Mapping `json:"mappings,omitempty"`
}

// AddMapping appends a resolved mapping to the entity.
func (e *Entity) AddMapping(m equivalence.Mapping) {
	e.Mappings = append(e.Mappings, m)
}

// Document is the unit of processing: an identity plus the entities found
// in it.  Identity matters because disambiguation caches are scoped per
// document; two documents with identical content are still distinct.
type Document struct {
	// ID uniquely identifies the document within a batch.
	ID string `json:"id"`

	// Entities are the mentions found by upstream NER, in document order.
	Entities []*Entity `json:"entities"`

	// Metadata carries batch-level annotations such as processing
	// exceptions.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// New returns a document with the given id and no entities.
func New(id string) *Document {
	return &Document{ID: id}
}

// AddEntity appends an entity and returns it for further population.
func (d *Document) AddEntity(e *Entity) *Entity {
	d.Entities = append(d.Entities, e)
	return e
}

// MappedIDs returns every (id, source) pair already mapped anywhere in the
// document.  Used by the defined-elsewhere strategies.
func (d *Document) MappedIDs() map[equivalence.IDAndSource]struct{} {
	out := make(map[equivalence.IDAndSource]struct{})
	for _, e := range d.Entities {
		for _, m := range e.Mappings {
			out[equivalence.IDAndSource{ID: m.ID, Source: m.Source}] = struct{}{}
		}
	}
	return out
}

// MentionNorms returns the normalized match text of every entity, in order,
// falling back to the raw match where no normalization has been applied yet.
// Used to build bag-of-mentions document representations for context
// scoring, which must share a vocabulary with the normalized term store.
func (d *Document) MentionNorms() []string {
	out := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		if e.MatchNorm != "" {
			out = append(out, e.MatchNorm)
		} else {
			out = append(out, e.Match)
		}
	}
	return out
}

// RecordProcessingException marks the document as having failed a batch
// step, keeping the batch alive.
func (d *Document) RecordProcessingException(err error) {
	if d.Metadata == nil {
		d.Metadata = make(map[string]interface{}, 1)
	}
	d.Metadata[ProcessingExceptionKey] = err.Error()
}
