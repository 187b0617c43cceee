package ingestion

import (
	"sort"

	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/language"
	"github.com/turtacn/ontolink/pkg/errors"
)

// GroupingFn decides how the identifiers referenced by one synonym group are
// partitioned into equivalence classes.  labels maps each id to its default
// label.  Parsers may supply their own implementation when domain knowledge
// rules out merging (e.g. gene symbols), tagged Custom.
type GroupingFn func(
	ids []equivalence.IDAndSource,
	labels map[string]string,
	isSymbolic bool,
	rawSynonyms []string,
) (equivalence.AssociatedIDSets, equivalence.AggregationStrategy, error)

// Grouper is the default GroupingFn implementation.  A nil scorer disables
// similarity clustering and puts every id in its own class, which maximises
// ambiguity and is not recommended outside debugging.
type Grouper struct {
	scorer         language.StringScorer
	mergeThreshold float64
}

// NewGrouper returns a grouper with the given scorer and merge threshold.
// The threshold is on the scorer's own scale.
func NewGrouper(scorer language.StringScorer, mergeThreshold float64) *Grouper {
	return &Grouper{scorer: scorer, mergeThreshold: mergeThreshold}
}

// ScoreAndGroupIDs implements GroupingFn:
//   - no scorer configured: one class per id (NoStrategy)
//   - exactly one id: one class (Unambiguous)
//   - non-symbolic synonym: all ids merged into one class
//     (MergedAsNonSymbolic)
//   - symbolic with multiple ids: greedy single-pass clustering of default
//     labels (ResolvedBySimilarity)
//
// Ids are processed in lexical order so the greedy clustering, which is
// order dependent, is deterministic.
func (g *Grouper) ScoreAndGroupIDs(
	ids []equivalence.IDAndSource,
	labels map[string]string,
	isSymbolic bool,
	_ []string,
) (equivalence.AssociatedIDSets, equivalence.AggregationStrategy, error) {
	uniq := dedupeAndSort(ids)
	if len(uniq) == 0 {
		return equivalence.AssociatedIDSets{}, equivalence.NoStrategy,
			errors.New(errors.CodeEmptyIDSet, "synonym group references no ids")
	}

	if g.scorer == nil {
		sets := make([]equivalence.EquivalentIDSet, 0, len(uniq))
		for _, pair := range uniq {
			sets = append(sets, equivalence.MustNewEquivalentIDSet(pair))
		}
		return equivalence.NewAssociatedIDSets(sets...), equivalence.NoStrategy, nil
	}

	if len(uniq) == 1 {
		set := equivalence.MustNewEquivalentIDSet(uniq[0])
		return equivalence.NewAssociatedIDSets(set), equivalence.Unambiguous, nil
	}

	if !isSymbolic {
		// natural-language synonyms rarely denote multiple concepts
		set, err := equivalence.NewEquivalentIDSet(uniq...)
		if err != nil {
			return equivalence.AssociatedIDSets{}, equivalence.NoStrategy, err
		}
		return equivalence.NewAssociatedIDSets(set), equivalence.MergedAsNonSymbolic, nil
	}

	sets := g.clusterByLabel(uniq, labels)
	return equivalence.NewAssociatedIDSets(sets...), equivalence.ResolvedBySimilarity, nil
}

// clusterByLabel runs a single greedy pass: each id joins the existing
// cluster whose member labels score highest against its own label, provided
// that score clears the merge threshold, else it starts a new cluster.
// Earlier assignments are never revisited.
func (g *Grouper) clusterByLabel(ids []equivalence.IDAndSource, labels map[string]string) []equivalence.EquivalentIDSet {
	type cluster struct {
		members []equivalence.IDAndSource
		labels  []string
	}
	var clusters []*cluster

	for _, pair := range ids {
		label := labels[pair.ID]
		if label == "" {
			label = pair.ID
		}
		bestScore := 0.0
		var best *cluster
		for _, c := range clusters {
			for _, existing := range c.labels {
				if score := g.scorer.Score(existing, label); score > bestScore {
					bestScore = score
					best = c
				}
			}
		}
		if best != nil && bestScore >= g.mergeThreshold {
			best.members = append(best.members, pair)
			best.labels = append(best.labels, label)
			continue
		}
		clusters = append(clusters, &cluster{
			members: []equivalence.IDAndSource{pair},
			labels:  []string{label},
		})
	}

	out := make([]equivalence.EquivalentIDSet, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, equivalence.MustNewEquivalentIDSet(c.members...))
	}
	return out
}

// OneIDPerSet is a GroupingFn for parsers whose symbols collide across
// unrelated concepts and must never be merged.  Every id becomes its own
// class, tagged Custom.
func OneIDPerSet(
	ids []equivalence.IDAndSource,
	_ map[string]string,
	_ bool,
	_ []string,
) (equivalence.AssociatedIDSets, equivalence.AggregationStrategy, error) {
	uniq := dedupeAndSort(ids)
	if len(uniq) == 0 {
		return equivalence.AssociatedIDSets{}, equivalence.Custom,
			errors.New(errors.CodeEmptyIDSet, "synonym group references no ids")
	}
	sets := make([]equivalence.EquivalentIDSet, 0, len(uniq))
	for _, pair := range uniq {
		sets = append(sets, equivalence.MustNewEquivalentIDSet(pair))
	}
	return equivalence.NewAssociatedIDSets(sets...), equivalence.Custom, nil
}

func dedupeAndSort(ids []equivalence.IDAndSource) []equivalence.IDAndSource {
	seen := make(map[equivalence.IDAndSource]struct{}, len(ids))
	uniq := make([]equivalence.IDAndSource, 0, len(ids))
	for _, pair := range ids {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		uniq = append(uniq, pair)
	}
	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i].ID != uniq[j].ID {
			return uniq[i].ID < uniq[j].ID
		}
		return uniq[i].Source < uniq[j].Source
	})
	return uniq
}
