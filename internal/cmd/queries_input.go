package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// resolveQueries merges positional arguments with the contents of an optional
// queries file. Duplicates keep their first occurrence so result ordering
// stays predictable.
func resolveQueries(positional []string, queriesFile string) ([]string, error) {
	queries := make([]string, 0, len(positional))
	seen := make(map[string]struct{}, len(positional))

	appendQuery := func(raw string) {
		query := strings.TrimSpace(raw)
		if query == "" {
			return
		}
		if _, ok := seen[query]; ok {
			return
		}
		seen[query] = struct{}{}
		queries = append(queries, query)
	}

	for _, raw := range positional {
		appendQuery(raw)
	}

	trimmed := strings.TrimSpace(queriesFile)
	if trimmed != "" {
		fromFile, err := readLineItems(trimmed)
		if err != nil {
			return nil, err
		}
		for _, raw := range fromFile {
			appendQuery(raw)
		}
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one username or email is required")
	}
	return queries, nil
}

// readLineItems reads one item per line from path ("-" for stdin), skipping
// blank lines and #-comments.
func readLineItems(path string) ([]string, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close() // nolint:errcheck
		reader = file
	}

	items := make([]string, 0)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		items = append(items, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
