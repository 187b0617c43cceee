package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ontolink/internal/config"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/pipeline"
)

const testTSV = "id\tdefault_label\tsynonym\tmapping_type\n" +
	"MONDO:0005015\tdiabetes mellitus\tdiabetes mellitus\texact\n" +
	"MONDO:0005015\tdiabetes mellitus\tdiabetes\texact\n" +
	"MONDO:0005148\ttype 2 diabetes\tT2DM\texact\n"

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "link")
	assert.Contains(t, root.Version, "dev")
}

func TestIngestCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	tsvPath := writeTestFile(t, dir, "mondo.tsv", testTSV)
	cfgPath := writeTestFile(t, dir, "ontolink.yaml", fmt.Sprintf(
		"parsers:\n"+
			"  - name: mondo\n"+
			"    source: MONDO\n"+
			"    entity_class: disease\n"+
			"    format: tsv\n"+
			"    path: %s\n", tsvPath))

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ingest", "--config", cfgPath})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "mondo: 3 terms, 2 ids")
}

func TestIngestCommand_MissingConfigFile(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ingest", "--config", filepath.Join(t.TempDir(), "nope.yaml")})

	assert.Error(t, root.Execute())
}

func TestLinkDocuments_StreamsAndAnnotates(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Parsers: []config.ParserConfig{{
			Name:        "mondo",
			Source:      "MONDO",
			EntityClass: "disease",
			Format:      "tsv",
			Path:        writeTestFile(t, dir, "mondo.tsv", testTSV),
		}},
	}
	config.ApplyDefaults(cfg)
	require.NoError(t, cfg.Validate())

	p := pipeline.New(cfg, logging.NewNop(), nil)
	require.NoError(t, p.Populate(context.Background()))

	in := strings.NewReader(
		`{"id": "d1", "entities": [{"match": "diabetes", "entity_class": "disease"}]}` + "\n" +
			"not json\n")
	var out bytes.Buffer
	require.NoError(t, linkDocuments(p, in, &out, logging.NewNop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "MONDO:0005015")
	assert.Contains(t, lines[1], "processing_exception")
}
