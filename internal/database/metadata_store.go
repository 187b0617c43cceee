package database

import (
	"sync"

	"github.com/turtacn/ontolink/pkg/errors"
)

// Well-known metadata keys.
const (
	// DefaultLabelKey holds the preferred human-readable label of an id.
	DefaultLabelKey = "default_label"

	// AnnotationScoreKey holds an optional numeric popularity score used by
	// annotation-level disambiguation.
	AnnotationScoreKey = "annotation_score"
)

// MetadataStore holds per-identifier metadata, indexed by parser name and
// id.  Every id a parser ingests has at least a default label.
type MetadataStore struct {
	mu sync.RWMutex

	// parser -> id -> metadata
	meta map[string]map[string]map[string]interface{}
}

// NewMetadataStore returns an empty store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{meta: make(map[string]map[string]map[string]interface{})}
}

// Add inserts or replaces metadata for ids of a parser.
func (s *MetadataStore) Add(parserName string, metadata map[string]map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.meta[parserName]
	if !ok {
		byID = make(map[string]map[string]interface{}, len(metadata))
		s.meta[parserName] = byID
	}
	for id, fields := range metadata {
		byID[id] = fields
	}
}

// Get returns the metadata for (parser, id).  The returned map is a copy.
func (s *MetadataStore) Get(parserName, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, ok := s.meta[parserName]
	if !ok {
		return nil, errors.New(errors.CodeParserNotFound, "parser has no metadata loaded").
			WithDetail("parser=" + parserName)
	}
	fields, ok := byID[id]
	if !ok {
		return nil, errors.New(errors.CodeIDNotFound, "id has no metadata").
			WithDetail("parser=" + parserName + " id=" + id)
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}

// GetAll returns every metadata record of a parser, keyed by id.  The outer
// map is a copy; the inner maps are shared and must not be mutated.
func (s *MetadataStore) GetAll(parserName string) map[string]map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.meta[parserName]
	out := make(map[string]map[string]interface{}, len(byID))
	for id, fields := range byID {
		out[id] = fields
	}
	return out
}

// DefaultLabel returns the default label of (parser, id), or "" when the id
// is unknown or carries no label.
func (s *MetadataStore) DefaultLabel(parserName, id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.meta[parserName][id]
	if !ok {
		return ""
	}
	label, _ := fields[DefaultLabelKey].(string)
	return label
}

// AnnotationScore returns the annotation score of (parser, id).  The second
// return value is false when the id carries no numeric score.
func (s *MetadataStore) AnnotationScore(parserName, id string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.meta[parserName][id]
	if !ok {
		return 0, false
	}
	switch v := fields[AnnotationScoreKey].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// DropID removes the metadata of (parser, id).  Missing records are not an
// error: global id drops run against ids that may never have been ingested.
func (s *MetadataStore) DropID(parserName, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meta[parserName], id)
}

// Count returns the number of ids with metadata for a parser.
func (s *MetadataStore) Count(parserName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meta[parserName])
}
