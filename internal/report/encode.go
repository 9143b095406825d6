package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/violenttestpen/mesa/internal/history"
)

// writeCSV always quotes text fields and doubles embedded quotes. Line
// breaks inside fields are not treated specially.
func writeCSV(w io.Writer, records []history.Record, _ options) error {
	if _, err := io.WriteString(w, "Timestamp,Executable,Arguments,Runs,Mean,StdDev,Note\n"); err != nil {
		return err
	}
	for _, r := range records {
		_, err := fmt.Fprintf(w, "%d,%s,%s,%d,%s,%s,%s\n",
			r.Timestamp, quoteCSV(r.Executable), quoteCSV(r.Arguments), r.Runs,
			formatFloat(r.Mean), formatFloat(r.StdDev),
			quoteCSV(r.Note))
		if err != nil {
			return err
		}
	}
	return nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// writeJSON escapes only double quotes in text fields. Backslashes and
// control characters are written as they are.
func writeJSON(w io.Writer, records []history.Record, _ options) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}
	for i, r := range records {
		sep := ",\n"
		if i == len(records)-1 {
			sep = "\n"
		}
		_, err := fmt.Fprintf(w,
			"  {\"timestamp\": %d, \"executable\": \"%s\", \"arguments\": \"%s\", \"runs\": %d, \"mean\": %s, \"stddev\": %s, \"note\": \"%s\"}%s",
			r.Timestamp, escapeJSON(r.Executable), escapeJSON(r.Arguments), r.Runs,
			formatFloat(r.Mean), formatFloat(r.StdDev), escapeJSON(r.Note), sep)
		if err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]\n")
	return err
}

func escapeJSON(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// writeXML escapes &, < and > in text fields and nothing else.
func writeXML(w io.Writer, records []history.Record, _ options) error {
	if _, err := io.WriteString(w, "<Measurements>\n"); err != nil {
		return err
	}
	for _, r := range records {
		_, err := fmt.Fprintf(w, "  <Measurement>\n"+
			"    <Timestamp>%d</Timestamp>\n"+
			"    <Executable>%s</Executable>\n"+
			"    <Arguments>%s</Arguments>\n"+
			"    <Note>%s</Note>\n"+
			"    <Runs>%d</Runs>\n"+
			"    <Mean>%s</Mean>\n"+
			"    <StdDev>%s</StdDev>\n"+
			"  </Measurement>\n",
			r.Timestamp, xmlEscaper.Replace(r.Executable), xmlEscaper.Replace(r.Arguments),
			xmlEscaper.Replace(r.Note), r.Runs, formatFloat(r.Mean), formatFloat(r.StdDev))
		if err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</Measurements>\n")
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
