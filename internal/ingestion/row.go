// Package ingestion converts flat ontology synonym tables into deduplicated
// SynonymTerms with identifiers grouped into equivalence classes, and
// populates the synonym and metadata stores from them.  The file formats the
// tables arrive in are abstracted behind RowSource.
package ingestion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/ontolink/pkg/errors"
)

// Row is one record of a flat ontology synonym table.
type Row struct {
	// ID is the concept identifier, an IRI or code.
	ID string `json:"id"`

	// DefaultLabel is the preferred label of the concept.  When empty it
	// defaults to the id during metadata extraction.
	DefaultLabel string `json:"default_label"`

	// Synonym is one raw surface string naming the concept.
	Synonym string `json:"synonym"`

	// MappingType labels how the synonym was derived in the source ontology.
	MappingType string `json:"mapping_type"`
}

// RowSource yields the rows of one parser's synonym table.
type RowSource interface {
	Rows() ([]Row, error)
}

// TSVSource reads tab-separated rows with columns id, default_label,
// synonym, mapping_type.  A header line starting with "id" is skipped.
type TSVSource struct {
	r io.Reader
}

// NewTSVSource wraps r as a RowSource.
func NewTSVSource(r io.Reader) *TSVSource { return &TSVSource{r: r} }

// Rows implements RowSource.
func (s *TSVSource) Rows() ([]Row, error) {
	var out []Row
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if lineNo == 1 && strings.EqualFold(fields[0], "id") {
			continue
		}
		if len(fields) < 4 {
			return nil, errors.Newf(errors.CodeRowSourceFailed,
				"malformed tsv row at line %d: expected 4 columns, got %d", lineNo, len(fields))
		}
		out = append(out, Row{
			ID:           fields[0],
			DefaultLabel: fields[1],
			Synonym:      fields[2],
			MappingType:  fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRowSourceFailed, "failed to read tsv rows")
	}
	return out, nil
}

// JSONLinesSource reads one JSON-encoded Row per line.
type JSONLinesSource struct {
	r io.Reader
}

// NewJSONLinesSource wraps r as a RowSource.
func NewJSONLinesSource(r io.Reader) *JSONLinesSource { return &JSONLinesSource{r: r} }

// Rows implements RowSource.
func (s *JSONLinesSource) Rows() ([]Row, error) {
	var out []Row
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, errors.Wrap(err, errors.CodeRowSourceFailed, "failed to decode row").
				WithDetail(fmt.Sprintf("line %d", lineNo))
		}
		out = append(out, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRowSourceFailed, "failed to read json rows")
	}
	return out, nil
}

// StaticSource is an in-memory RowSource, used by tests and programmatic
// ingestion.
type StaticSource struct {
	rows []Row
}

// NewStaticSource wraps rows as a RowSource.
func NewStaticSource(rows []Row) *StaticSource { return &StaticSource{rows: rows} }

// Rows implements RowSource.
func (s *StaticSource) Rows() ([]Row, error) { return s.rows, nil }
