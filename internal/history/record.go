package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/violenttestpen/mesa/internal/config"
)

// fieldCount is the number of delimited fields in a stored row:
// timestamp|executable|arguments|runs|mean|stddev|note
const fieldCount = 7

// Record is one stored benchmark outcome.
type Record struct {
	Timestamp  int64 // seconds since the epoch
	Executable string
	Arguments  string // target arguments joined by single spaces
	Runs       int
	Mean       float64 // seconds
	StdDev     float64 // seconds, population
	Note       string
}

// Time returns the insertion time of the record.
func (r Record) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// String returns the row as written to the history file. Nothing is
// escaped, so text fields containing the delimiter do not round-trip.
func (r Record) String() string {
	return strings.Join([]string{
		strconv.FormatInt(r.Timestamp, 10),
		r.Executable,
		r.Arguments,
		strconv.Itoa(r.Runs),
		strconv.FormatFloat(r.Mean, 'g', -1, 64),
		strconv.FormatFloat(r.StdDev, 'g', -1, 64),
		r.Note,
	}, config.Delimiter)
}

// ParseRecord parses one row of the history file.
func ParseRecord(line string) (Record, error) {
	parts := strings.Split(line, config.Delimiter)
	if len(parts) != fieldCount {
		return Record{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, fieldCount, len(parts))
	}

	var (
		r   Record
		err error
	)
	if r.Timestamp, err = strconv.ParseInt(parts[0], 10, 64); err != nil || r.Timestamp < 0 {
		return Record{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformed, parts[0])
	}
	r.Executable = parts[1]
	r.Arguments = parts[2]
	if r.Runs, err = strconv.Atoi(parts[3]); err != nil || r.Runs < 0 {
		return Record{}, fmt.Errorf("%w: invalid run count %q", ErrMalformed, parts[3])
	}
	if r.Mean, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return Record{}, fmt.Errorf("%w: invalid mean %q", ErrMalformed, parts[4])
	}
	if r.StdDev, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return Record{}, fmt.Errorf("%w: invalid std dev %q", ErrMalformed, parts[5])
	}
	r.Note = parts[6]
	return r, nil
}
