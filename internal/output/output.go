package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/handlescan/handlescan/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders one scan report.
type Formatter interface {
	FormatReport(report *Report) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format, showLinks bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{ShowLinks: showLinks}
	default:
		return &TableFormatter{ShowLinks: showLinks}
	}
}

// Report is one scan's results plus summary tallies. Tallies always cover
// the full result set; Results may be trimmed to available hits only.
type Report struct {
	Results   []*core.CheckResult `json:"results"`
	Total     int                 `json:"total"`
	Available int                 `json:"available"`
	Taken     int                 `json:"taken"`
	Invalid   int                 `json:"invalid"`
	Failed    int                 `json:"failed"`
	ElapsedMS int64               `json:"elapsed_ms"`
}

// BuildReport tallies results into a report. With availableOnly the report
// keeps only available rows while the tallies still describe the whole scan.
func BuildReport(results []*core.CheckResult, elapsed time.Duration, availableOnly bool) *Report {
	report := &Report{
		ElapsedMS: elapsed.Milliseconds(),
	}

	kept := make([]*core.CheckResult, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		report.Total++
		switch {
		case !result.Success:
			report.Failed++
		case !result.Valid:
			report.Invalid++
		case result.Available:
			report.Available++
		default:
			report.Taken++
		}

		if availableOnly && !(result.Success && result.Valid && result.Available) {
			continue
		}
		kept = append(kept, result)
	}
	report.Results = kept

	return report
}

// Summary renders the one-line scan tally.
func (r *Report) Summary() string {
	if r == nil {
		return ""
	}

	judged := r.Available + r.Taken
	summary := fmt.Sprintf("%d/%d available", r.Available, judged)
	if r.Invalid > 0 {
		summary += fmt.Sprintf(", %d invalid", r.Invalid)
	}
	if r.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", r.Failed)
	}
	return summary
}

func statusLabel(result *core.CheckResult) string {
	switch {
	case result == nil:
		return "unknown"
	case !result.Success:
		return "error"
	case !result.Valid:
		return "invalid"
	case result.Available:
		return "available"
	default:
		return "taken"
	}
}
