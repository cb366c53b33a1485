package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handlescan/handlescan/internal/core"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func sampleResults() []*core.CheckResult {
	return []*core.CheckResult{
		{
			Query:     "someuser",
			Kind:      core.KindUsername,
			Platform:  "github",
			Success:   true,
			Valid:     true,
			Available: true,
			Message:   "Username available",
			Link:      "https://github.com/someuser",
		},
		{
			Query:    "someuser",
			Kind:     core.KindUsername,
			Platform: "reddit",
			Success:  true,
			Valid:    true,
			Message:  "That username is already taken",
		},
		{
			Query:    "a",
			Kind:     core.KindUsername,
			Platform: "github",
			Success:  true,
			Message:  "username must be at least 3 characters",
		},
		{
			Query:    "someuser",
			Kind:     core.KindUsername,
			Platform: "snapchat",
			Message:  "request failed: connection refused",
		},
	}
}

func TestBuildReportTallies(t *testing.T) {
	report := BuildReport(sampleResults(), 1200*time.Millisecond, false)

	require.Equal(t, 4, report.Total)
	require.Equal(t, 1, report.Available)
	require.Equal(t, 1, report.Taken)
	require.Equal(t, 1, report.Invalid)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, int64(1200), report.ElapsedMS)
	require.Len(t, report.Results, 4)
}

func TestBuildReportAvailableOnlyKeepsFullTallies(t *testing.T) {
	report := BuildReport(sampleResults(), time.Second, true)

	require.Len(t, report.Results, 1)
	require.Equal(t, "github", report.Results[0].Platform)
	require.Equal(t, 4, report.Total)
	require.Equal(t, 1, report.Taken)
}

func TestReportSummary(t *testing.T) {
	report := BuildReport(sampleResults(), time.Second, false)
	require.Equal(t, "1/2 available, 1 invalid, 1 failed", report.Summary())
}

func TestFormatters(t *testing.T) {
	report := BuildReport(sampleResults(), time.Second, false)

	tableRendered, err := NewFormatter(FormatTable, false).FormatReport(report)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "QUERY")
	require.Contains(t, tableRendered, "github")
	require.Contains(t, tableRendered, "available")
	require.NotContains(t, tableRendered, "LINK")

	jsonRendered, err := NewFormatter(FormatJSON, false).FormatReport(report)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"query\": \"someuser\"")
	require.Contains(t, jsonRendered, "\"available\": 1")

	markdownRendered, err := NewFormatter(FormatMarkdown, false).FormatReport(report)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "| Query | Platform | Status | Message |")
	require.Contains(t, markdownRendered, "someuser")
}

func TestTableShowsLinksWhenRequested(t *testing.T) {
	report := BuildReport(sampleResults(), time.Second, true)

	rendered, err := NewFormatter(FormatTable, true).FormatReport(report)
	require.NoError(t, err)
	require.Contains(t, rendered, "LINK")
	require.Contains(t, rendered, "https://github.com/someuser")
}

func TestMarkdownEscaping(t *testing.T) {
	report := BuildReport([]*core.CheckResult{
		{
			Query:    "pipe|test",
			Kind:     core.KindUsername,
			Platform: "reddit",
			Success:  true,
			Valid:    true,
			Message:  "foo|bar",
		},
	}, time.Second, false)

	rendered, err := NewFormatter(FormatMarkdown, false).FormatReport(report)
	require.NoError(t, err)
	require.Contains(t, rendered, "pipe\\|test")
	require.Contains(t, rendered, "foo\\|bar")
}

func TestStatusLabel(t *testing.T) {
	require.Equal(t, "error", statusLabel(&core.CheckResult{}))
	require.Equal(t, "invalid", statusLabel(&core.CheckResult{Success: true}))
	require.Equal(t, "taken", statusLabel(&core.CheckResult{Success: true, Valid: true}))
	require.Equal(t, "available", statusLabel(&core.CheckResult{Success: true, Valid: true, Available: true}))
}
