package mapping

import (
	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/linking/disambiguation"
)

// Runner applies the mapping strategy chain to one mention's candidates.
// Strategies run in order; the first whose filtered candidates yield any
// mapping wins.  Ambiguity among the survivors escalates to the
// disambiguation chain, and when that fails to narrow to exactly one
// equivalence class, the full unioned set is surfaced with Ambiguous
// confidence rather than dropped.
type Runner struct {
	strategies     []Strategy
	disambiguators []disambiguation.Strategy
	factory        *Factory
	logger         logging.Logger
}

// NewRunner constructs a runner.
func NewRunner(
	strategies []Strategy,
	disambiguators []disambiguation.Strategy,
	factory *Factory,
	logger logging.Logger,
) *Runner {
	return &Runner{
		strategies:     strategies,
		disambiguators: disambiguators,
		factory:        factory,
		logger:         logger.Named("mapping"),
	}
}

// Run resolves one mention against its candidate terms, already narrowed to
// one parser.  Returns the mappings of the first strategy that decides, or
// nil when every strategy abstains.
func (r *Runner) Run(
	mention, mentionNorm string,
	doc *document.Document,
	candidates []TermWithMetrics,
	parserName string,
) []equivalence.Mapping {
	for _, strategy := range r.strategies {
		filtered := strategy.FilterTerms(mention, mentionNorm, doc, candidates, parserName)
		if len(filtered) == 0 {
			continue
		}
		mappings := r.resolve(strategy, filtered, doc, parserName)
		if len(mappings) > 0 {
			return mappings
		}
	}
	r.logger.Debug("no strategy resolved mention",
		logging.String("mention", mention),
		logging.String("parser", parserName),
	)
	return nil
}

// resolve unions the filtered candidates' equivalence classes, narrows via
// the disambiguation chain when more than one class (or any ambiguous
// candidate) remains, and materialises the survivors.
func (r *Runner) resolve(
	strategy Strategy,
	filtered []TermWithMetrics,
	doc *document.Document,
	parserName string,
) []equivalence.Mapping {
	ambiguous := len(filtered) > 1
	for _, c := range filtered {
		if c.Term.IsAmbiguous() {
			ambiguous = true
		}
	}

	sets := unionIDSets(filtered)
	disambiguatedBy := ""
	if ambiguous && len(sets) > 1 {
		sets, disambiguatedBy = r.disambiguate(sets, doc, parserName)
	}

	confidence := strategy.Confidence()
	if len(sets) > 1 {
		confidence = equivalence.Ambiguous
	}

	var out []equivalence.Mapping
	for _, set := range sets {
		out = append(out, r.factory.Create(set, parserName, confidence, strategy.Name(), disambiguatedBy)...)
	}
	return out
}

// disambiguate runs the chain until a strategy narrows the sets to exactly
// one.  A strategy that fails to reach one leaves the input for the next;
// when all fail, the full unioned set survives unresolved.
func (r *Runner) disambiguate(
	sets []equivalence.EquivalentIDSet,
	doc *document.Document,
	parserName string,
) ([]equivalence.EquivalentIDSet, string) {
	for _, strategy := range r.disambiguators {
		strategy.Prepare(doc)
		narrowed := strategy.Disambiguate(sets, doc, parserName)
		if len(narrowed) == 1 {
			return narrowed, strategy.Name()
		}
	}
	return sets, ""
}

// unionIDSets collects the distinct equivalence classes across all filtered
// candidates, in canonical key order.
func unionIDSets(filtered []TermWithMetrics) []equivalence.EquivalentIDSet {
	all := make([]equivalence.EquivalentIDSet, 0, len(filtered))
	for _, c := range filtered {
		all = append(all, c.Term.IDSets.Sets()...)
	}
	return equivalence.NewAssociatedIDSets(all...).Sets()
}
