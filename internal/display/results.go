package display

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/backmassage/clipsmith/internal/media"
)

// ResultRow pairs a segment's request with its outcome.
type ResultRow struct {
	Request media.SegmentRequest
	Result  media.OperationResult
}

// RenderResults draws the per-segment outcome table printed after a batch.
// Without color the table keeps its border but carries no ANSI styling.
func RenderResults(rows []ResultRow, color bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("#", "SEGMENT", "RANGE", "STATUS", "OUTPUT / ERROR")

	for i, r := range rows {
		status, detail := "ok", filepath.Base(r.Result.OutputPath)
		if !r.Result.Success {
			status, detail = "failed", r.Result.Error
			if r.Result.OutputPath != "" {
				detail += " (kept " + filepath.Base(r.Result.OutputPath) + ")"
			}
		}
		t.Row(
			fmt.Sprintf("%d", i+1),
			r.Request.OutputName,
			FormatSeconds(r.Request.StartTime)+" - "+FormatSeconds(r.Request.EndTime),
			status,
			detail,
		)
	}

	if color {
		t.BorderStyle(BorderStyle).StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return base.Inherit(TitleStyle)
			case col == 3 && row < len(rows) && rows[row].Result.Success:
				return base.Inherit(SuccessStyle)
			case col == 3:
				return base.Inherit(ErrorStyle)
			}
			return base
		})
	} else {
		t.StyleFunc(func(int, int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
	}
	return t.String()
}

// Summary is the one-line batch outcome printed under the table.
func Summary(succeeded, failed, interrupted int, outputBytes int64) string {
	parts := []string{
		fmt.Sprintf("%d succeeded", succeeded),
		fmt.Sprintf("%d failed", failed),
	}
	if interrupted > 0 {
		parts = append(parts, fmt.Sprintf("%d interrupted", interrupted))
	}
	return strings.Join(parts, ", ") + " | " + FormatBytes(outputBytes) + " written"
}
