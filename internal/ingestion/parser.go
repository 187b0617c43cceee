package ingestion

import (
	"sort"

	"github.com/turtacn/ontolink/internal/database"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/language"
	"github.com/turtacn/ontolink/pkg/errors"
)

// Parser converts one ontology's flat synonym table into SynonymTerms and
// metadata, and populates the stores with them.  Each parser owns a disjoint
// namespace in the stores keyed by its name, so independent parsers may be
// populated in parallel.
type Parser struct {
	// Name is the store namespace of this parser.
	Name string

	// Source is the ontology source recorded on every id.
	Source string

	// EntityClass scopes synonym normalization.
	EntityClass string

	normalizer language.Normalizer
	grouping   GroupingFn
	source     RowSource
	logger     logging.Logger
}

// ParserOption customises a Parser.
type ParserOption func(*Parser)

// WithGrouping overrides the default grouping algorithm, e.g. with
// OneIDPerSet for symbol-collision-prone ontologies.
func WithGrouping(fn GroupingFn) ParserOption {
	return func(p *Parser) { p.grouping = fn }
}

// NewParser constructs a parser.  scorer may be nil to disable similarity
// clustering.
func NewParser(
	name, ontologySource, entityClass string,
	rowSource RowSource,
	normalizer language.Normalizer,
	scorer language.StringScorer,
	mergeThreshold float64,
	logger logging.Logger,
	opts ...ParserOption,
) *Parser {
	p := &Parser{
		Name:        name,
		Source:      ontologySource,
		EntityClass: entityClass,
		normalizer:  normalizer,
		grouping:    NewGrouper(scorer, mergeThreshold).ScoreAndGroupIDs,
		source:      rowSource,
		logger:      logger.Named("ingestion").With(logging.String("parser", name)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ResolveSynonyms groups rows by term_norm and emits one SynonymTerm per
// group, with ids partitioned into equivalence classes by the grouping
// algorithm.  A disjointness violation in any group aborts the whole parser:
// it means the upstream data is self-contradictory.
func (p *Parser) ResolveSynonyms(rows []Row) (map[string]*equivalence.SynonymTerm, error) {
	type group struct {
		rawSynonyms  []string
		mappingTypes []string
		ids          []equivalence.IDAndSource
		allSymbolic  bool
	}

	labels := make(map[string]string, len(rows))
	groups := make(map[string]*group)
	var order []string
	for _, row := range rows {
		if row.ID == "" || row.Synonym == "" {
			continue
		}
		if row.DefaultLabel != "" {
			labels[row.ID] = row.DefaultLabel
		}
		norm := p.normalizer.Normalize(row.Synonym, p.EntityClass)
		if norm == "" {
			continue
		}
		g, ok := groups[norm]
		if !ok {
			g = &group{allSymbolic: true}
			groups[norm] = g
			order = append(order, norm)
		}
		g.rawSynonyms = append(g.rawSynonyms, row.Synonym)
		g.mappingTypes = append(g.mappingTypes, row.MappingType)
		g.ids = append(g.ids, equivalence.IDAndSource{ID: row.ID, Source: p.Source})
		if !p.normalizer.ClassifySymbolic(row.Synonym, p.EntityClass) {
			g.allSymbolic = false
		}
	}
	sort.Strings(order)

	terms := make(map[string]*equivalence.SynonymTerm, len(groups))
	for _, norm := range order {
		g := groups[norm]
		idSets, strategy, err := p.grouping(g.ids, labels, g.allSymbolic, g.rawSynonyms)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIngestFailed, "id grouping failed").
				WithDetail("parser=" + p.Name + " term_norm=" + norm)
		}
		if err := equivalence.CheckDisjoint(idSets); err != nil {
			return nil, errors.Wrap(err, errors.CodeDisjointnessViolation,
				"grouping produced overlapping equivalence classes").
				WithDetail("parser=" + p.Name + " term_norm=" + norm)
		}
		terms[norm] = equivalence.NewSynonymTerm(
			norm, g.rawSynonyms, g.allSymbolic, g.mappingTypes, idSets, p.Name, strategy,
		)
	}
	p.logger.Info("synonyms resolved",
		logging.Int("rows", len(rows)),
		logging.Int("terms", len(terms)),
	)
	return terms, nil
}

// ExtractMetadata builds the metadata records for every id referenced by
// rows.  Ids without a default label get their own id as label, so every id
// is always presentable.
func (p *Parser) ExtractMetadata(rows []Row) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		fields, ok := out[row.ID]
		if !ok {
			fields = map[string]interface{}{database.DefaultLabelKey: row.ID}
			out[row.ID] = fields
		}
		if row.DefaultLabel != "" {
			fields[database.DefaultLabelKey] = row.DefaultLabel
		}
	}
	return out
}

// PopulateStores reads the parser's row source, resolves synonyms and loads
// both stores.  Any failure is fatal for this parser and leaves its
// namespaces untouched where possible.
func (p *Parser) PopulateStores(synonyms *database.SynonymStore, metadata *database.MetadataStore) error {
	rows, err := p.source.Rows()
	if err != nil {
		return errors.Wrap(err, errors.CodeIngestFailed, "failed to read rows").
			WithDetail("parser=" + p.Name)
	}

	terms, err := p.ResolveSynonyms(rows)
	if err != nil {
		return err
	}

	metadata.Add(p.Name, p.ExtractMetadata(rows))

	termList := make([]*equivalence.SynonymTerm, 0, len(terms))
	for _, term := range terms {
		termList = append(termList, term)
	}
	if err := synonyms.Add(p.Name, termList); err != nil {
		return err
	}
	p.logger.Info("stores populated",
		logging.Int("terms", len(termList)),
		logging.Int("ids", metadata.Count(p.Name)),
	)
	return nil
}
