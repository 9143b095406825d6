package report

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// Sink is where a renderer writes. Close flushes and releases it and must
// be called on every path.
type Sink interface {
	io.Writer
	Close() error
}

type terminalSink struct {
	*bufio.Writer
}

func (s terminalSink) Close() error {
	return s.Flush()
}

type fileSink struct {
	*bufio.Writer
	f *os.File
}

func (s fileSink) Close() error {
	return errors.Join(s.Flush(), s.f.Close())
}

// Open returns the sink for t: a buffered stdout for terminal targets,
// otherwise a newly created file.
func Open(t Target, stdout io.Writer) (Sink, error) {
	if t.Terminal {
		return terminalSink{bufio.NewWriter(stdout)}, nil
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return nil, &OutputError{Target: t.Path, Err: err}
	}
	return fileSink{Writer: bufio.NewWriter(f), f: f}, nil
}
