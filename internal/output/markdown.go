package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct {
	ShowLinks bool
}

// FormatReport renders a scan report as Markdown.
func (f *MarkdownFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Scan results\n\n")
	if f.ShowLinks {
		sb.WriteString("| Query | Platform | Status | Message | Link |\n")
		sb.WriteString("|-------|----------|--------|---------|------|\n")
	} else {
		sb.WriteString("| Query | Platform | Status | Message |\n")
		sb.WriteString("|-------|----------|--------|---------|\n")
	}

	for _, r := range report.Results {
		if r == nil {
			continue
		}
		if f.ShowLinks {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				escapeMarkdownCell(r.Query),
				escapeMarkdownCell(r.Platform),
				escapeMarkdownCell(statusLabel(r)),
				escapeMarkdownCell(r.Message),
				escapeMarkdownCell(r.Link),
			))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(r.Query),
			escapeMarkdownCell(r.Platform),
			escapeMarkdownCell(statusLabel(r)),
			escapeMarkdownCell(r.Message),
		))
	}

	if report.Total > 0 {
		sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", report.Summary()))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
