package curation

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/pkg/errors"
)

// LoadCurations reads one JSON-encoded curation per line.  Records without
// an id get a fresh one assigned; invalid records fail the whole load, since
// a partially loaded curation file silently changes linking behaviour.
func LoadCurations(r io.Reader) ([]*equivalence.Curation, error) {
	var out []*equivalence.Curation
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		curation, err := equivalence.ParseCuration([]byte(line))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "failed to load curations").
				WithDetail(fmt.Sprintf("line %d", lineNo))
		}
		out = append(out, curation)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "failed to read curations")
	}
	return out, nil
}

// LoadGlobalActions reads a single JSON GlobalParserActions document.
func LoadGlobalActions(r io.Reader) (*equivalence.GlobalParserActions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "failed to read global parser actions")
	}
	return equivalence.ParseGlobalActions(data)
}
