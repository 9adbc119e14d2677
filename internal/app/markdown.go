package app

import (
	"strconv"
	"strings"

	"github.com/evanschultz/hexaboard/internal/domain"
)

// RenderMarkdown renders b as a markdown document headed by title.
func RenderMarkdown(title string, b domain.Board) string {
	var sb strings.Builder
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Board"
	}
	sb.WriteString("# " + title + "\n")
	if len(b.Columns) == 0 {
		sb.WriteString("\n_no columns_\n")
		return sb.String()
	}
	for _, col := range b.Columns {
		sb.WriteString("\n## " + col.Title + " (" + TaskCountLabel(len(col.Tasks)) + ")\n\n")
		if len(col.Tasks) == 0 {
			sb.WriteString("_no tasks_\n")
			continue
		}
		for _, task := range col.Tasks {
			sb.WriteString("- " + task.Title + "\n")
		}
	}
	return sb.String()
}

// TaskCountLabel formats n as "1 task" or "n tasks".
func TaskCountLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return strconv.Itoa(n) + " tasks"
}
