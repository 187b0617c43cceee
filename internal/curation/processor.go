// Package curation reconciles externally authored curations and parser-wide
// actions with a parser's ingested synonym terms.  The processor owns a
// private working copy of the term set during a session; the stores are only
// updated from its exported final state, so a failed session leaves the
// database untouched.
package curation

import (
	"sort"

	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/language"
	"github.com/turtacn/ontolink/pkg/errors"
)

// Processor applies one batch of curations and global actions against one
// parser's term set.  Not safe for concurrent use; each parser gets its own
// processor.
type Processor struct {
	parserName  string
	entityClass string

	normalizer language.Normalizer
	logger     logging.Logger

	// working copy, keyed by term_norm
	terms map[string]*equivalence.SynonymTerm

	// id -> term_norms spanning it, kept consistent with terms
	byID map[string]map[string]struct{}

	nerEligible []*equivalence.Curation
	stats       Stats
}

// Stats summarises a curation session for reporting.
type Stats struct {
	// Applied counts successfully applied actions by behaviour.
	Applied map[string]int

	// Discarded counts discarded curations by reason.
	Discarded map[string]int

	// Conflicts is the number of curations excluded by conflict analysis.
	Conflicts int

	// GlobalIDDrops is the number of ids retired by global actions.
	GlobalIDDrops int
}

// NewProcessor copies terms into a private working state.  The input map is
// not retained or modified.
func NewProcessor(
	parserName, entityClass string,
	terms map[string]*equivalence.SynonymTerm,
	normalizer language.Normalizer,
	logger logging.Logger,
) *Processor {
	p := &Processor{
		parserName:  parserName,
		entityClass: entityClass,
		normalizer:  normalizer,
		logger:      logger.Named("curation").With(logging.String("parser", parserName)),
		terms:       make(map[string]*equivalence.SynonymTerm, len(terms)),
		byID:        make(map[string]map[string]struct{}),
		stats: Stats{
			Applied:   make(map[string]int),
			Discarded: make(map[string]int),
		},
	}
	for norm, term := range terms {
		p.terms[norm] = term
		p.index(term)
	}
	return p
}

// Process runs the full session: global actions first, then conflict
// analysis, then per-curation dispatch with source-term-dependent curations
// last.  Data-integrity errors abort the session; missing references and
// conflicts are logged and skipped.
func (p *Processor) Process(curations []*equivalence.Curation, global *equivalence.GlobalParserActions) error {
	curations = p.applyGlobalActions(curations, global)
	curations = p.excludeConflicts(curations)

	// inherited curations must observe the state their source left behind
	sort.SliceStable(curations, func(i, j int) bool {
		return !curations[i].Inherited() && curations[j].Inherited()
	})

	for _, curation := range curations {
		if err := p.applyCuration(curation); err != nil {
			return err
		}
	}
	return nil
}

// ExportNERCurationsAndFinalTerms returns the curations eligible for
// dictionary-based NER matching and the final reconciled term set.  Both
// views derive from the same post-session state, so an NER curation never
// references a term that linking would reject.
func (p *Processor) ExportNERCurationsAndFinalTerms() ([]*equivalence.Curation, map[string]*equivalence.SynonymTerm) {
	eligible := make([]*equivalence.Curation, 0, len(p.nerEligible))
	for _, curation := range p.nerEligible {
		norm := p.normalizer.Normalize(curation.SynonymForLinking(), p.entityClass)
		if _, ok := p.terms[norm]; !ok {
			p.logger.Warn("ner curation dropped, its term no longer exists",
				logging.String("curation_id", curation.ID),
				logging.String("term_norm", norm),
			)
			continue
		}
		eligible = append(eligible, curation)
	}

	terms := make(map[string]*equivalence.SynonymTerm, len(p.terms))
	for norm, term := range p.terms {
		terms[norm] = term
	}
	return eligible, terms
}

// Stats returns the running session summary.
func (p *Processor) Stats() Stats { return p.stats }

// applyGlobalActions drops globally retired ids from every working term,
// then rewrites curation actions naming those ids.  Curations whose target
// sets are emptied by the rewrite are discarded.
func (p *Processor) applyGlobalActions(curations []*equivalence.Curation, global *equivalence.GlobalParserActions) []*equivalence.Curation {
	var droppedIDs []string
	for _, action := range global.ForParser(p.parserName) {
		switch action.Behaviour {
		case equivalence.DropIDsFromParser:
			for _, id := range action.ParserToTargetIDs[p.parserName] {
				modified, dropped := p.dropIDFromAllTerms(id)
				droppedIDs = append(droppedIDs, id)
				p.stats.GlobalIDDrops++
				p.logger.Info("id dropped from parser",
					logging.String("id", id),
					logging.Int("terms_modified", modified),
					logging.Int("terms_dropped", dropped),
				)
			}
		}
	}
	if len(droppedIDs) == 0 {
		return curations
	}

	// index curations by the ids their actions target, so only affected
	// curations are rewritten
	targeting := make(map[string][]*equivalence.Curation)
	for _, curation := range curations {
		for _, action := range curation.Actions {
			if action.IDSets == nil {
				continue
			}
			for _, id := range action.IDSets.AllIDs() {
				targeting[id] = append(targeting[id], curation)
			}
		}
	}

	discarded := make(map[*equivalence.Curation]struct{})
	for _, id := range droppedIDs {
		for _, curation := range targeting[id] {
			if _, ok := discarded[curation]; ok {
				continue
			}
			for i, action := range curation.Actions {
				if action.IDSets == nil || !containsIDIn(*action.IDSets, id) {
					continue
				}
				narrowed := action.IDSets.WithoutID(id)
				if narrowed.IsEmpty() {
					p.logger.Warn("curation discarded, all its target ids were globally dropped",
						logging.String("curation_id", curation.ID),
						logging.String("id", id),
					)
					discarded[curation] = struct{}{}
					p.stats.Discarded["target_ids_globally_dropped"]++
					break
				}
				curation.Actions[i] = action.WithIDSets(narrowed)
			}
		}
	}

	kept := make([]*equivalence.Curation, 0, len(curations))
	for _, curation := range curations {
		if _, ok := discarded[curation]; !ok {
			kept = append(kept, curation)
		}
	}
	return kept
}

// excludeConflicts removes every curation group that requests different
// target id sets for the same term_norm via add-type actions.  Ambiguity is
// never resolved by picking a winner.  Inherited curations are exempt: they
// resolve via their source's term_norm, not their own.
func (p *Processor) excludeConflicts(curations []*equivalence.Curation) []*equivalence.Curation {
	type addRequest struct {
		curation *equivalence.Curation
		key      string
	}
	byNorm := make(map[string][]addRequest)
	for _, curation := range curations {
		if curation.Inherited() {
			continue
		}
		norm := p.normalizer.Normalize(curation.CuratedSynonym, p.entityClass)
		for _, action := range curation.Actions {
			switch action.Behaviour {
			case equivalence.AddForLinkingOnly, equivalence.AddForNERAndLinking:
				byNorm[norm] = append(byNorm[norm], addRequest{curation: curation, key: action.IDSets.Key()})
			}
		}
	}

	conflicting := make(map[*equivalence.Curation]struct{})
	for norm, requests := range byNorm {
		keys := make(map[string]struct{}, len(requests))
		for _, req := range requests {
			keys[req.key] = struct{}{}
		}
		if len(keys) <= 1 {
			continue
		}
		ids := make([]string, 0, len(requests))
		for _, req := range requests {
			conflicting[req.curation] = struct{}{}
			ids = append(ids, req.curation.ID)
		}
		p.logger.Warn("conflicting curations excluded, they request different id sets for one term norm",
			logging.String("term_norm", norm),
			logging.Strings("curation_ids", ids),
		)
	}
	if len(conflicting) == 0 {
		return curations
	}
	p.stats.Conflicts += len(conflicting)

	kept := make([]*equivalence.Curation, 0, len(curations))
	for _, curation := range curations {
		if _, ok := conflicting[curation]; !ok {
			kept = append(kept, curation)
		}
	}
	return kept
}

func (p *Processor) applyCuration(curation *equivalence.Curation) error {
	norm := p.normalizer.Normalize(curation.SynonymForLinking(), p.entityClass)

	for _, action := range curation.Actions {
		switch action.Behaviour {
		case equivalence.Ignore:
			p.logger.Debug("curation ignored", logging.String("curation_id", curation.ID))

		case equivalence.InheritFromSourceTerm:
			if _, ok := p.terms[norm]; !ok {
				p.logger.Warn("inherited curation discarded, source term not found",
					logging.String("curation_id", curation.ID),
					logging.String("source_term", curation.SourceTerm),
					logging.String("term_norm", norm),
				)
				p.stats.Discarded["source_term_missing"]++
				return nil
			}
			p.nerEligible = append(p.nerEligible, curation)
			p.stats.Applied[action.Behaviour.String()]++

		case equivalence.DropTermForLinking:
			if term, ok := p.terms[norm]; ok {
				p.unindex(term)
				delete(p.terms, norm)
				p.stats.Applied[action.Behaviour.String()]++
			} else {
				p.logger.Warn("cannot drop term, not found",
					logging.String("curation_id", curation.ID),
					logging.String("term_norm", norm),
				)
			}

		case equivalence.DropIDSetFromTerm:
			if p.dropIDSetsFromTerm(curation, norm, *action.IDSets) {
				p.stats.Applied[action.Behaviour.String()]++
			}

		case equivalence.AddForLinkingOnly:
			if err := p.addCuratedSynonym(curation, norm, *action.IDSets); err != nil {
				return err
			}
			p.stats.Applied[action.Behaviour.String()]++

		case equivalence.AddForNERAndLinking:
			if err := p.addCuratedSynonym(curation, norm, *action.IDSets); err != nil {
				return err
			}
			p.nerEligible = append(p.nerEligible, curation)
			p.stats.Applied[action.Behaviour.String()]++
		}
	}
	return nil
}

// dropIDSetsFromTerm reports whether the named term existed and was edited.
func (p *Processor) dropIDSetsFromTerm(curation *equivalence.Curation, norm string, idSets equivalence.AssociatedIDSets) bool {
	term, ok := p.terms[norm]
	if !ok {
		p.logger.Warn("cannot drop id set, term not found",
			logging.String("curation_id", curation.ID),
			logging.String("term_norm", norm),
		)
		return false
	}
	remaining := term.IDSets
	for _, set := range idSets.Sets() {
		if !remaining.Contains(set) {
			p.logger.Warn("id set not present on term, nothing dropped",
				logging.String("curation_id", curation.ID),
				logging.String("term_norm", norm),
			)
			continue
		}
		remaining = remaining.Without(set)
	}
	p.unindex(term)
	if remaining.IsEmpty() {
		delete(p.terms, norm)
		return true
	}
	updated := term.ReplaceIDSets(remaining, equivalence.ModifiedByCuration)
	p.terms[norm] = updated
	p.index(updated)
	return true
}

// addCuratedSynonym implements insert-or-reuse:
//  1. a term already at this norm is a no-op when it covers the full target
//     id set, a hard conflict otherwise
//  2. else reuse the smallest existing AssociatedIDSets anywhere in the
//     working set that covers the full target, for grouping consistency
//  3. else synthesize one EquivalentIDSet per id, the maximally
//     disambiguated default
func (p *Processor) addCuratedSynonym(curation *equivalence.Curation, norm string, target equivalence.AssociatedIDSets) error {
	targetIDs := target.AllIDs()

	if existing, ok := p.terms[norm]; ok {
		if existing.IDSets.ContainsAllIDs(targetIDs) {
			p.logger.Debug("curated synonym already represented",
				logging.String("curation_id", curation.ID),
				logging.String("term_norm", norm),
			)
			return nil
		}
		return errors.New(errors.CodeTermConflict,
			"curated synonym collides with an existing term carrying different ids").
			WithDetail("parser=" + p.parserName + " term_norm=" + norm + " curation_id=" + curation.ID)
	}

	idSets, reused := p.smallestCoveringIDSets(targetIDs)
	if !reused {
		sets := make([]equivalence.EquivalentIDSet, 0, target.Size())
		for _, set := range target.Sets() {
			for _, pair := range set.Pairs() {
				sets = append(sets, equivalence.MustNewEquivalentIDSet(pair))
			}
		}
		idSets = equivalence.NewAssociatedIDSets(sets...)
	}

	term := equivalence.NewSynonymTerm(
		norm,
		[]string{curation.CuratedSynonym},
		p.normalizer.ClassifySymbolic(curation.CuratedSynonym, p.entityClass),
		[]string{"curated"},
		idSets,
		p.parserName,
		equivalence.ModifiedByCuration,
	)
	p.terms[norm] = term
	p.index(term)
	return nil
}

// smallestCoveringIDSets scans the working terms for an AssociatedIDSets
// already containing every target id, preferring the smallest match as the
// least ambiguous choice.  Key order breaks size ties deterministically.
func (p *Processor) smallestCoveringIDSets(targetIDs []string) (equivalence.AssociatedIDSets, bool) {
	var best equivalence.AssociatedIDSets
	found := false
	if len(targetIDs) == 0 {
		return best, false
	}
	for norm := range p.byID[targetIDs[0]] {
		term, ok := p.terms[norm]
		if !ok {
			continue
		}
		candidate := term.IDSets
		if !candidate.ContainsAllIDs(targetIDs) {
			continue
		}
		if !found ||
			candidate.Size() < best.Size() ||
			(candidate.Size() == best.Size() && candidate.Key() < best.Key()) {
			best = candidate
			found = true
		}
	}
	return best, found
}

func (p *Processor) dropIDFromAllTerms(id string) (modified, dropped int) {
	for norm := range p.byID[id] {
		term, ok := p.terms[norm]
		if !ok {
			continue
		}
		p.unindex(term)
		remaining := term.IDSets.WithoutID(id)
		if remaining.IsEmpty() {
			delete(p.terms, norm)
			dropped++
			continue
		}
		updated := term.ReplaceIDSets(remaining, equivalence.ModifiedByCuration)
		p.terms[norm] = updated
		p.index(updated)
		modified++
	}
	return modified, dropped
}

func (p *Processor) index(term *equivalence.SynonymTerm) {
	for _, id := range term.IDSets.AllIDs() {
		norms, ok := p.byID[id]
		if !ok {
			norms = make(map[string]struct{})
			p.byID[id] = norms
		}
		norms[term.TermNorm] = struct{}{}
	}
}

func (p *Processor) unindex(term *equivalence.SynonymTerm) {
	for _, id := range term.IDSets.AllIDs() {
		delete(p.byID[id], term.TermNorm)
		if len(p.byID[id]) == 0 {
			delete(p.byID, id)
		}
	}
}

func containsIDIn(sets equivalence.AssociatedIDSets, id string) bool {
	for _, set := range sets.Sets() {
		if set.Contains(id) {
			return true
		}
	}
	return false
}
