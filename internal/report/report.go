// Package report renders history records as a table, CSV, JSON or XML.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/violenttestpen/mesa/internal/history"
)

type renderFunc func(w io.Writer, records []history.Record, opts options) error

var renderers = map[Format]renderFunc{
	FormatTable: writeTable,
	FormatCSV:   writeCSV,
	FormatJSON:  writeJSON,
	FormatXML:   writeXML,
}

type options struct {
	color bool
	now   time.Time
}

// Reporter writes reports for a newest-first slice of records.
type Reporter struct {
	// Stdout backs terminal targets.
	Stdout io.Writer
	// Diag receives notes that are not part of the report.
	Diag io.Writer
	// Color enables colouring of terminal tables.
	Color bool
	// Now is used for the Age column; time.Now when nil.
	Now func() time.Time
}

// Render writes records to target. The first record is the anchor of the
// table. With no records nothing is opened or written and a note goes to
// Diag instead.
func (r *Reporter) Render(target Target, records []history.Record) (err error) {
	if len(records) == 0 {
		fmt.Fprintln(r.Diag, "Nothing to output...")
		return nil
	}

	render, ok := renderers[target.Format]
	if !ok {
		return &OutputError{Target: target.String(), Err: fmt.Errorf("%w: %s", ErrUnknownFormat, target.Format)}
	}

	sink, err := Open(target, r.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, &OutputError{Target: target.String(), Err: cerr})
		}
	}()

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	opts := options{color: r.Color && target.Terminal, now: now()}
	if err := render(sink, records, opts); err != nil {
		return &OutputError{Target: target.String(), Err: err}
	}
	return nil
}
