package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveQueriesMergesPositionalAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	content := "# watchlist\nsomeuser\n\nother@example.com\nsomeuser\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write queries file: %v", err)
	}

	queries, err := resolveQueries([]string{"someuser", " spare "}, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"someuser", "spare", "other@example.com"}
	if len(queries) != len(want) {
		t.Fatalf("expected %d queries, got %d: %v", len(want), len(queries), queries)
	}
	for i, q := range want {
		if queries[i] != q {
			t.Fatalf("query %d: expected %q, got %q", i, q, queries[i])
		}
	}
}

func TestResolveQueriesRequiresAtLeastOne(t *testing.T) {
	if _, err := resolveQueries(nil, ""); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := resolveQueries([]string{"  ", ""}, ""); err == nil {
		t.Fatal("expected error for blank-only input")
	}
}

func TestResolveQueriesMissingFile(t *testing.T) {
	if _, err := resolveQueries(nil, filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadLineItemsSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "http://proxy-a:8080\n# backup\n\nhttp://proxy-b:8080\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write proxy file: %v", err)
	}

	items, err := readLineItems(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %v", len(items), items)
	}
	if items[0] != "http://proxy-a:8080" || items[1] != "http://proxy-b:8080" {
		t.Fatalf("unexpected items: %v", items)
	}
}
