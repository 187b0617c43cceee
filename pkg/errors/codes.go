package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
// Codes are prefixed by the module they originate from so that metrics and
// log queries can aggregate per module.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal      ErrorCode = "COMMON_001"
	ErrCodeInvalidParam  ErrorCode = "COMMON_002"
	ErrCodeNotFound      ErrorCode = "COMMON_003"
	ErrCodeConflict      ErrorCode = "COMMON_004"
	ErrCodeSerialization ErrorCode = "COMMON_005"
	ErrCodeIO            ErrorCode = "COMMON_006"
	ErrCodeUnknown       ErrorCode = "COMMON_000"
)

// Short aliases used at call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeInvalidParam
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrCodeUnknown
	CodeOK           = ErrorCode("OK")
)

// Synonym store error codes.
const (
	// CodeTermConflict is raised when an Add would overwrite an existing
	// SynonymTerm for the same (parser, term_norm) with a different id set.
	// This is a data-integrity violation, fatal for the parser's ingestion.
	CodeTermConflict ErrorCode = "DB_001"

	// CodeTermNotFound is raised by exact term_norm lookups that miss.
	CodeTermNotFound ErrorCode = "DB_002"

	// CodeIDNotFound is raised by reverse id lookups that miss.
	CodeIDNotFound ErrorCode = "DB_003"

	// CodeParserNotFound is raised when a parser namespace has not been
	// populated.
	CodeParserNotFound ErrorCode = "DB_004"
)

// Ontology ingestion error codes.
const (
	CodeIngestFailed ErrorCode = "ONTO_001"

	// CodeDisjointnessViolation indicates an id appears in two
	// EquivalentIDSets of one AssociatedIDSets.  This implies the upstream
	// ontology data is self-contradictory; proceeding risks wrong linking
	// decisions downstream.
	CodeDisjointnessViolation ErrorCode = "ONTO_002"

	CodeRowSourceFailed ErrorCode = "ONTO_003"
	CodeEmptyIDSet      ErrorCode = "ONTO_004"
)

// Curation error codes.
const (
	// CodeCurationConflict marks a mutually conflicting curation group that
	// was excluded from processing.
	CodeCurationConflict ErrorCode = "CUR_001"

	// CodeCurationInvalid marks a curation that references ids or terms no
	// longer present; such curations are discarded with a warning.
	CodeCurationInvalid ErrorCode = "CUR_002"

	CodeCurationLoadFailed ErrorCode = "CUR_003"
)

// Linking error codes.
const (
	CodeMappingFailed    ErrorCode = "LINK_001"
	CodeMetadataMissing  ErrorCode = "LINK_002"
	CodeScorerUnconfined ErrorCode = "LINK_003"
)

// defaultMessages maps codes to fallback human-readable messages.
var defaultMessages = map[ErrorCode]string{
	ErrCodeInternal:      "internal error",
	ErrCodeInvalidParam:  "invalid parameter",
	ErrCodeNotFound:      "resource not found",
	ErrCodeConflict:      "resource conflict",
	ErrCodeSerialization: "serialization failed",
	ErrCodeIO:            "i/o failure",

	CodeTermConflict:   "synonym term already exists with an incompatible id set",
	CodeTermNotFound:   "synonym term not found",
	CodeIDNotFound:     "identifier not found",
	CodeParserNotFound: "parser not populated",

	CodeIngestFailed:          "ontology ingestion failed",
	CodeDisjointnessViolation: "equivalent id sets are not pairwise disjoint",
	CodeRowSourceFailed:       "failed to read ontology rows",
	CodeEmptyIDSet:            "equivalent id set must not be empty",

	CodeCurationConflict:   "conflicting curations detected",
	CodeCurationInvalid:    "curation references missing data",
	CodeCurationLoadFailed: "failed to load curations",

	CodeMappingFailed:   "mapping creation failed",
	CodeMetadataMissing: "metadata missing for identifier",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "CUR" for
// CodeCurationConflict.  Used as a metric label.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
