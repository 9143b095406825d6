// Package config holds the resolved parameters of one benchmark invocation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter separates fields in the history file. Text fields may not contain it.
const Delimiter = "|"

// Filter selects which history records are shown next to the current run.
type Filter int

const (
	FilterAll Filter = iota
	FilterExe
	FilterExact
)

var filterNames = map[string]Filter{
	"all":   FilterAll,
	"exe":   FilterExe,
	"exact": FilterExact,
}

// ParseFilter maps "all", "exe" or "exact" to a Filter.
func ParseFilter(s string) (Filter, error) {
	f, ok := filterNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return FilterAll, &Error{Param: "filter", Err: fmt.Errorf("%w: %q", ErrInvalidFilter, s)}
	}
	return f, nil
}

func (f Filter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterExe:
		return "exe"
	case FilterExact:
		return "exact"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// Set and Type let a Filter be bound directly as a command line flag.
func (f *Filter) Set(s string) error {
	v, err := ParseFilter(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f *Filter) Type() string { return "filter" }

func (f *Filter) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return f.Set(s)
}

// Run is the configuration of a single benchmark invocation.
type Run struct {
	Database      string `yaml:"database"`
	Output        string `yaml:"output"`
	Note          string `yaml:"note"`
	Runs          int    `yaml:"runs"`
	Warmup        int    `yaml:"warmup"`
	Filter        Filter `yaml:"filter"`
	Show          int    `yaml:"show"`
	IgnoreFailure bool   `yaml:"ignore_failure"`
	NoColor       bool   `yaml:"no_color"`
	Setup         string `yaml:"setup"`

	DryRun     bool     `yaml:"-"`
	Verbose    bool     `yaml:"-"`
	Executable string   `yaml:"-"`
	Arguments  []string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Run {
	return Run{
		Database: ".mesa.data",
		Output:   "-",
		Runs:     10,
		Warmup:   0,
		Filter:   FilterExact,
		Show:     10,
	}
}

// FlatArguments joins the target arguments with single spaces. The encoding
// is lossy: ["a b"] and ["a", "b"] flatten to the same string.
func (r Run) FlatArguments() string {
	return strings.Join(r.Arguments, " ")
}

// Validate reports the first invalid parameter as an *Error.
func (r Run) Validate() error {
	switch {
	case r.Executable == "":
		return &Error{Err: ErrMissingProgram}
	case r.Database == "":
		return &Error{Param: "database", Err: ErrEmptyDatabase}
	case r.Runs < 0, r.Runs == 0 && !r.DryRun:
		return &Error{Param: "runs", Err: fmt.Errorf("%w: %d", ErrInvalidRuns, r.Runs)}
	case r.Warmup < 0:
		return &Error{Param: "warmup", Err: fmt.Errorf("%w: %d", ErrInvalidWarmup, r.Warmup)}
	case r.Show < 0:
		return &Error{Param: "show", Err: fmt.Errorf("%w: %d", ErrInvalidShow, r.Show)}
	case r.Filter < FilterAll || r.Filter > FilterExact:
		return &Error{Param: "filter", Err: fmt.Errorf("%w: %s", ErrInvalidFilter, r.Filter)}
	}

	// The history file has no escaping; refuse to write rows it cannot read back.
	for _, f := range []struct{ param, value string }{
		{"executable", r.Executable},
		{"arguments", r.FlatArguments()},
		{"note", r.Note},
	} {
		if strings.Contains(f.value, Delimiter) || strings.ContainsAny(f.value, "\r\n") {
			return &Error{Param: f.param, Err: fmt.Errorf("%w: %q", ErrReservedCharacter, f.value)}
		}
	}
	return nil
}

var (
	ErrMissingProgram    = errors.New("the target program is missing, use '--' to separate mesa options from the program to be executed")
	ErrEmptyDatabase     = errors.New("database path is empty")
	ErrInvalidRuns       = errors.New("run count must be positive")
	ErrInvalidWarmup     = errors.New("warmup count must not be negative")
	ErrInvalidShow       = errors.New("show count must not be negative")
	ErrInvalidFilter     = errors.New("unknown filter, expected all, exe or exact")
	ErrReservedCharacter = errors.New("value contains '|' or a line break, which the history file cannot store")
)

// Error is a configuration error: a missing or malformed parameter.
type Error struct {
	Param string
	Err   error
}

func (e *Error) Error() string {
	if e.Param == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
