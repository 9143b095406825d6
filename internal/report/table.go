package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/violenttestpen/mesa/internal/history"
)

// minAnchorMean replaces a non-positive anchor mean in percent changes.
const minAnchorMean = 0.00001

// cellPadding is added to the widest cell of every column.
const cellPadding = 2

var tableHeader = []string{"Age", "Executable", "Arguments", "Runs", "Mean (s)", "StdDev (s)", "Change (%)", "Note"}

// writeTable prints an aligned table. records[0] is the anchor: every change
// is relative to its mean, it is printed bold, and other rows more than 1%
// faster (red) or slower (green) than it are coloured.
func writeTable(w io.Writer, records []history.Record, opts options) error {
	anchor := records[0].Mean
	if anchor <= 0 {
		anchor = minAnchorMean
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, tableHeader)
	styles := make([]*color.Color, 0, len(records)+1)
	styles = append(styles, nil)

	for i, r := range records {
		change := " "
		if i > 0 {
			change = fmt.Sprintf("%.2f", (r.Mean-anchor)/anchor*100)
		}
		rows = append(rows, []string{
			humanize.RelTime(r.Time(), opts.now, "ago", "from now"),
			r.Executable,
			r.Arguments,
			fmt.Sprint(r.Runs),
			fmt.Sprintf("%.4f", r.Mean),
			fmt.Sprintf("%.4f", r.StdDev),
			change,
			r.Note,
		})
		styles = append(styles, rowStyle(i, r.Mean, anchor, opts.color))
	}

	widths := make([]int, len(tableHeader))
	for _, row := range rows {
		for j, cell := range row {
			widths[j] = max(widths[j], runewidth.StringWidth(cell)+cellPadding)
		}
	}

	cells := make([]string, len(widths))
	for i, row := range rows {
		for j, cell := range row {
			cells[j] = center(cell, widths[j])
		}
		line := strings.Join(cells, "|")
		if styles[i] != nil {
			line = styles[i].Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		if i == 0 {
			for j, width := range widths {
				cells[j] = strings.Repeat("-", width)
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, "+")); err != nil {
				return err
			}
		}
	}
	return nil
}

func rowStyle(i int, mean, anchor float64, enabled bool) *color.Color {
	var c *color.Color
	switch {
	case i == 0:
		c = color.New(color.Bold)
	case mean*1.01 < anchor:
		c = color.New(color.FgRed)
	case mean > anchor*1.01:
		c = color.New(color.FgGreen)
	default:
		return nil
	}
	if !enabled {
		return nil
	}
	c.EnableColor()
	return c
}

// center pads s with spaces to width display columns, the extra space going
// to the right.
func center(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
