package tui

import (
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/evanschultz/hexaboard/internal/domain"
)

// RenderBoardSummary renders one row per column with its task count and first task.
func RenderBoardSummary(b domain.Board) string {
	rows := make([][]string, 0, len(b.Columns))
	for _, col := range b.Columns {
		first := "-"
		if len(col.Tasks) > 0 {
			first = truncate(col.Tasks[0].Title, 32)
		}
		rows = append(rows, []string{col.Title, strconv.Itoa(len(col.Tasks)), first})
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("239"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Column", "Tasks", "Top task").
		Rows(rows...).
		String()
}
