package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output format, selected by the extension of the output target.
type Format int

const (
	FormatTable Format = iota
	FormatCSV
	FormatJSON
	FormatXML
)

var formatsByExtension = map[string]Format{
	"":      FormatTable,
	"txt":   FormatTable,
	"table": FormatTable,
	"csv":   FormatCSV,
	"json":  FormatJSON,
	"xml":   FormatXML,
}

func (f Format) String() string {
	switch f {
	case FormatTable:
		return "table"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// StdoutToken is the output target meaning standard output.
const StdoutToken = "-"

// Target is a resolved output target.
type Target struct {
	// Path is the file to create; empty when Terminal is set.
	Path     string
	Format   Format
	Terminal bool
}

func (t Target) String() string {
	if t.Terminal {
		return "stdout"
	}
	return t.Path
}

// ParseTarget resolves an output target. An empty target and the stems "-"
// and "stdout" select standard output; anything else is a file path. The
// extension picks the format. A name whose only dot is the leading one, such
// as ".csv", is a dotfile with no extension.
func ParseTarget(target string) (Target, error) {
	base := filepath.Base(target)
	ext := filepath.Ext(base)
	if strings.LastIndex(base, ".") == 0 {
		ext = ""
	}
	stem := strings.TrimSuffix(base, ext)

	format, ok := formatsByExtension[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return Target{}, &OutputError{Target: target, Err: fmt.Errorf("%w %q", ErrUnknownFormat, ext)}
	}

	if target == "" || stem == StdoutToken || stem == "stdout" {
		return Target{Format: format, Terminal: true}, nil
	}
	return Target{Path: target, Format: format}, nil
}

var ErrUnknownFormat = errors.New("unknown output format")

// OutputError means the report could not be produced for Target.
type OutputError struct {
	Target string
	Err    error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Target, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
