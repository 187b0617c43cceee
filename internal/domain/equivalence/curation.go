package equivalence

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/turtacn/ontolink/pkg/errors"
)

// Behaviour is the closed set of per-curation actions.  Dispatch over
// Behaviour is an exhaustive switch in the curation processor; an
// unrecognised value is rejected at load time, so unknown behaviours are
// unreachable by construction downstream.
type Behaviour string

const (
	// Ignore drops the curation silently.
	Ignore Behaviour = "IGNORE"

	// InheritFromSourceTerm makes the curation resolve via the term norm of
	// its source term.  Valid only when that term exists in the store.
	InheritFromSourceTerm Behaviour = "INHERIT_FROM_SOURCE_TERM"

	// DropTermForLinking removes the whole synonym term from linking.
	DropTermForLinking Behaviour = "DROP_SYNONYM_TERM_FOR_LINKING"

	// DropIDSetFromTerm narrows a term's AssociatedIDSets by the action's
	// target EquivalentIDSets.
	DropIDSetFromTerm Behaviour = "DROP_ID_SET_FROM_SYNONYM_TERM"

	// AddForLinkingOnly inserts (or reuses) a synonym term for linking.
	AddForLinkingOnly Behaviour = "ADD_FOR_LINKING_ONLY"

	// AddForNERAndLinking is AddForLinkingOnly plus eligibility for
	// dictionary-based NER matching downstream.
	AddForNERAndLinking Behaviour = "ADD_FOR_NER_AND_LINKING"
)

// IsValid reports whether b is one of the defined behaviours.
func (b Behaviour) IsValid() bool {
	switch b {
	case Ignore, InheritFromSourceTerm, DropTermForLinking, DropIDSetFromTerm,
		AddForLinkingOnly, AddForNERAndLinking:
		return true
	}
	return false
}

// RequiresIDSets reports whether the behaviour needs a target id set.
func (b Behaviour) RequiresIDSets() bool {
	switch b {
	case DropIDSetFromTerm, AddForLinkingOnly, AddForNERAndLinking:
		return true
	}
	return false
}

func (b Behaviour) String() string { return string(b) }

// CurationAction is one ordered directive within a Curation.
type CurationAction struct {
	// Behaviour selects what the action does.
	Behaviour Behaviour `json:"behaviour"`

	// IDSets is the target AssociatedIDSets, required for drop-id-set and
	// add-type behaviours, absent otherwise.
	IDSets *AssociatedIDSets `json:"associated_id_sets,omitempty"`
}

// WithIDSets returns a copy of the action with a replaced target id set.
func (a CurationAction) WithIDSets(idSets AssociatedIDSets) CurationAction {
	clone := a
	clone.IDSets = &idSets
	return clone
}

// Curation is an externally authored directive keyed by a literal synonym
// string and entity class, carrying one or more ordered actions.  Curations
// referencing a nonexistent term, or whose ids have all been globally
// dropped, are invalidated and removed during processing.
type Curation struct {
	// ID uniquely identifies the curation record for logging and conflict
	// reports.  Assigned a fresh UUID on load when the file omits it.
	ID string `json:"id,omitempty"`

	// CuratedSynonym is the literal synonym string the curation targets.
	CuratedSynonym string `json:"curated_synonym"`

	// EntityClass scopes normalization of the synonym.
	EntityClass string `json:"entity_class"`

	// CaseSensitive controls downstream dictionary matching for
	// NER-eligible curations.
	CaseSensitive bool `json:"case_sensitive,omitempty"`

	// SourceTerm, when set, makes the curation inherit behaviour from the
	// named source synonym: its term norm is used for linking instead of the
	// normalized CuratedSynonym.
	SourceTerm string `json:"source_term,omitempty"`

	// Actions are applied in order.
	Actions []CurationAction `json:"actions"`
}

// SynonymForLinking returns the synonym whose normalized form locates the
// linking target: the source term for inherited curations, the curated
// synonym otherwise.
func (c *Curation) SynonymForLinking() string {
	if c.SourceTerm != "" {
		return c.SourceTerm
	}
	return c.CuratedSynonym
}

// Inherited reports whether the curation resolves via a source term.
func (c *Curation) Inherited() bool { return c.SourceTerm != "" }

// Validate checks structural soundness: a synonym, at least one action, only
// known behaviours, and id sets present exactly where required.
func (c *Curation) Validate() error {
	if c.CuratedSynonym == "" {
		return errors.New(errors.CodeCurationInvalid, "curation has no curated synonym")
	}
	if len(c.Actions) == 0 {
		return errors.New(errors.CodeCurationInvalid, "curation has no actions").
			WithDetail("curation_id=" + c.ID)
	}
	for _, action := range c.Actions {
		if !action.Behaviour.IsValid() {
			return errors.New(errors.CodeCurationInvalid, "unknown curation behaviour").
				WithDetail("behaviour=" + string(action.Behaviour))
		}
		if action.Behaviour.RequiresIDSets() && (action.IDSets == nil || action.IDSets.IsEmpty()) {
			return errors.New(errors.CodeCurationInvalid, "curation action requires a target id set").
				WithDetail("behaviour=" + string(action.Behaviour))
		}
	}
	return nil
}

// ParseCuration decodes a single JSON curation record, assigns an ID when
// absent, and validates it.
func ParseCuration(data []byte) (*Curation, error) {
	var c Curation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "failed to decode curation")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParserBehaviour is the closed set of parser-wide actions.
type ParserBehaviour string

const (
	// DropIDsFromParser strips the named identifiers from every synonym
	// term of the parser, e.g. when an identifier is retired upstream.
	DropIDsFromParser ParserBehaviour = "DROP_IDS_FROM_PARSER"
)

// IsValid reports whether b is one of the defined parser behaviours.
func (b ParserBehaviour) IsValid() bool { return b == DropIDsFromParser }

// GlobalAction is one parser-wide directive with per-parser target ids.
type GlobalAction struct {
	Behaviour ParserBehaviour `json:"behaviour"`

	// ParserToTargetIDs maps parser names to the identifiers the action
	// applies to.
	ParserToTargetIDs map[string][]string `json:"parser_to_target_ids"`
}

// GlobalParserActions bundles the parser-wide directives loaded from a
// global actions file.
type GlobalParserActions struct {
	Actions []GlobalAction `json:"actions"`
}

// ForParser returns the actions relevant to the named parser.
func (g *GlobalParserActions) ForParser(parser string) []GlobalAction {
	if g == nil {
		return nil
	}
	var out []GlobalAction
	for _, action := range g.Actions {
		if _, ok := action.ParserToTargetIDs[parser]; ok {
			out = append(out, action)
		}
	}
	return out
}

// ParseGlobalActions decodes and validates a GlobalParserActions document.
func ParseGlobalActions(data []byte) (*GlobalParserActions, error) {
	var g GlobalParserActions
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "failed to decode global parser actions")
	}
	for _, action := range g.Actions {
		if !action.Behaviour.IsValid() {
			return nil, errors.New(errors.CodeCurationInvalid, "unknown global parser behaviour").
				WithDetail("behaviour=" + string(action.Behaviour))
		}
	}
	return &g, nil
}
