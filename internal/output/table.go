package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/handlescan/handlescan/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct {
	ShowLinks bool
}

// FormatReport renders a scan report as a table.
func (f *TableFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := table.Row{"Query", "Platform", "Status", "Message"}
	if f.ShowLinks {
		header = append(header, "Link")
	}
	t.AppendHeader(header)

	for _, r := range report.Results {
		if r == nil {
			continue
		}
		row := table.Row{r.Query, r.Platform, statusLabel(r), r.Message}
		if f.ShowLinks {
			row = append(row, linkCell(r))
		}
		t.AppendRow(row)
	}

	if report.Total > 0 {
		footer := table.Row{"", "", report.Summary(), ""}
		if f.ShowLinks {
			footer = append(footer, "")
		}
		t.AppendFooter(footer)
	}

	return t.Render(), nil
}

func linkCell(result *core.CheckResult) string {
	if result == nil {
		return ""
	}
	return result.Link
}
