// Package render formats plan and report output for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/repolake/internal/artifact"
	"github.com/dbsmedya/repolake/internal/transform"
)

// pad right-fills a cell to the given display width. Widths are computed
// on uncolored text; colored values go in the last column only.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}
	return widths
}

// table renders aligned columns with a dashed rule under the header.
// A colorize hook may rewrite a cell after padding; it is applied to the
// last column so escape codes cannot disturb alignment.
func table(headers []string, rows [][]string, colorize func(row int, cell string) string) string {
	widths := columnWidths(headers, rows)

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(pad(h, widths[i]))
	}
	b.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteString("\n")

	for rowIdx, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(row)-1 && colorize != nil {
				b.WriteString(colorize(rowIdx, cell))
				continue
			}
			b.WriteString(pad(cell, widths[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StatusColor returns the colored rendering of a step status.
func StatusColor(status transform.Status) string {
	switch status {
	case transform.StatusSucceeded:
		return color.Green.Sprint(string(status))
	case transform.StatusFailed:
		return color.Red.Sprint(string(status))
	case transform.StatusSkipped:
		return color.Yellow.Sprint(string(status))
	default:
		return color.Gray.Sprint(string(status))
	}
}

// Plan renders the transformation step plan: order, declared tables, and
// current readiness.
func Plan(entries []transform.PlanEntry) string {
	headers := []string{"SEQ", "STEP", "REQUIRES", "PRODUCES", "READY"}
	rows := make([][]string, 0, len(entries))
	ready := make([]bool, 0, len(entries))
	for _, entry := range entries {
		state := "yes"
		if !entry.Ready {
			state = "missing: " + strings.Join(entry.Missing, ", ")
		}
		rows = append(rows, []string{
			strconv.Itoa(entry.Step.Seq),
			entry.Step.Name,
			strings.Join(entry.Step.Requires, ", "),
			strings.Join(entry.Step.Produces, ", "),
			state,
		})
		ready = append(ready, entry.Ready)
	}

	return table(headers, rows, func(row int, cell string) string {
		if ready[row] {
			return color.Green.Sprint(cell)
		}
		return color.Yellow.Sprint(cell)
	})
}

// RunReport renders transformation step outcomes.
func RunReport(results []transform.StepResult) string {
	headers := []string{"SEQ", "STEP", "DETAIL", "STATUS"}
	rows := make([][]string, 0, len(results))
	statuses := make([]transform.Status, 0, len(results))
	for _, result := range results {
		detail := result.Reason
		if result.Status == transform.StatusSucceeded {
			parts := make([]string, 0, len(result.RowCounts))
			for _, table := range result.Step.Produces {
				if count, ok := result.RowCounts[table]; ok {
					parts = append(parts, fmt.Sprintf("%s: %d rows", table, count))
				}
			}
			detail = strings.Join(parts, "; ")
		}
		rows = append(rows, []string{
			strconv.Itoa(result.Step.Seq),
			result.Step.Name,
			detail,
			string(result.Status),
		})
		statuses = append(statuses, result.Status)
	}

	return table(headers, rows, func(row int, cell string) string {
		return StatusColor(statuses[row])
	})
}

// IngestReport renders an orchestrator result: persisted tables, index
// outcomes, and export outcomes.
func IngestReport(result *artifact.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s (%s): %d records\n\n", result.RunID, result.QueryType, result.RecordCount)

	tableRows := make([][]string, 0, len(result.Tables))
	for _, outcome := range result.Tables {
		tableRows = append(tableRows, []string{outcome.Name, strconv.Itoa(outcome.RowCount)})
	}
	b.WriteString(table([]string{"TABLE", "ROWS"}, tableRows, nil))

	if len(result.Indexes) > 0 {
		b.WriteString("\n")
		indexRows := make([][]string, 0, len(result.Indexes))
		created := make([]bool, 0, len(result.Indexes))
		for _, outcome := range result.Indexes {
			state := "created"
			if !outcome.Created {
				state = "skipped: " + outcome.Reason
			}
			indexRows = append(indexRows, []string{outcome.Table, outcome.Column, state})
			created = append(created, outcome.Created)
		}
		b.WriteString(table([]string{"INDEX TABLE", "COLUMN", "RESULT"}, indexRows, func(row int, cell string) string {
			if created[row] {
				return color.Green.Sprint(cell)
			}
			return color.Yellow.Sprint(cell)
		}))
	}

	if len(result.Exports) > 0 {
		b.WriteString("\n")
		exportRows := make([][]string, 0, len(result.Exports))
		failed := make([]bool, 0, len(result.Exports))
		for _, outcome := range result.Exports {
			state := outcome.Path
			if outcome.Err != nil {
				state = "failed: " + outcome.Err.Error()
			}
			exportRows = append(exportRows, []string{outcome.Table, state})
			failed = append(failed, outcome.Err != nil)
		}
		b.WriteString(table([]string{"EXPORT", "RESULT"}, exportRows, func(row int, cell string) string {
			if failed[row] {
				return color.Red.Sprint(cell)
			}
			return cell
		}))
	}

	return b.String()
}

// ExportReport renders standalone export outcomes.
func ExportReport(exports []artifact.ExportOutcome) string {
	rows := make([][]string, 0, len(exports))
	failed := make([]bool, 0, len(exports))
	for _, outcome := range exports {
		state := outcome.Path
		if outcome.Err != nil {
			state = "failed: " + outcome.Err.Error()
		}
		rows = append(rows, []string{outcome.Table, state})
		failed = append(failed, outcome.Err != nil)
	}
	return table([]string{"EXPORT", "RESULT"}, rows, func(row int, cell string) string {
		if failed[row] {
			return color.Red.Sprint(cell)
		}
		return cell
	})
}
