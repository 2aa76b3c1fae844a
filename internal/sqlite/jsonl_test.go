package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadJSONL_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.jsonl")
	content := `{"a":1}

not json
{"a":2}
{"a":
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if string(records[1]) != `{"a":2}` {
		t.Errorf("unexpected record %s", records[1])
	}
}

func TestReadJSONL_MissingFile(t *testing.T) {
	if _, err := readJSONL(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, partiesJSONL)
	records := []partyJSON{
		{Context: "c", PartyKey: "PP", Name: "PP", FullName: "PP", ShortName: "PP", Aliases: []string{}, Members: []string{}},
		{Context: "c", PartyKey: "UP", Name: "Unidos Podemos", FullName: "Unidos Podemos", ShortName: "UP", Aliases: []string{}, Members: []string{"PODEMOS"}},
	}
	if err := writeJSONL(path, records); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], `"members":["PODEMOS"]`) {
		t.Errorf("unexpected line %s", lines[1])
	}
	if !strings.Contains(lines[0], `"aliases":[]`) {
		t.Errorf("empty aliases should be written as [], got %s", lines[0])
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}
