package tui

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/starsearch/internal/lifecycle"
)

// RenderTable draws rows under headers with a rule below the header row.
// rowStyle, when set, picks the style of each data row.
func RenderTable(headers []string, rows [][]string, rowStyle func(row int) lipgloss.Style) string {
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return StyleTableHeader.PaddingRight(2)
			}
			base := StyleTableRow
			if rowStyle != nil {
				base = rowStyle(row)
			}
			return base.PaddingRight(2)
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = sanitize(c)
		}
		t = t.Row(cells...)
	}
	return t.String()
}

// lifecycleHeaders are the columns of the lifecycle view.
var lifecycleHeaders = []string{"INDEX", "POLICY", "PHASE", "AGE", "SIZE", "WARM", "COLD", "DELETE"}

// RenderLifecycleTable draws lifecycle records, each row colored by phase.
func RenderLifecycleTable(recs []lifecycle.IndexRecord) string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{r.Index, r.Policy, r.Phase, r.Age, r.Size, r.WarmAt, r.ColdAt, r.DeleteAt}
	}
	return RenderTable(lifecycleHeaders, rows, func(row int) lipgloss.Style {
		return PhaseStyle(recs[row].Phase)
	})
}
