package runner

import (
	"errors"
	"os/exec"
	"time"
)

// Measurement is what a timer observed for one execution of the target.
type Measurement struct {
	Real     time.Duration
	User     time.Duration
	Kernel   time.Duration
	ExitCode int
}

// timer starts a prepared command, waits for it and measures it. Only the
// interval between start and wait is counted as real time. A non-zero exit
// is reported through Measurement.ExitCode; the error is reserved for
// commands that could not be started or waited on.
type timer interface {
	Run(cmd *exec.Cmd) (Measurement, error)
}

var processTimer timer

// exitStatus folds an *exec.ExitError from Wait into m.ExitCode.
func exitStatus(m *Measurement, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		m.ExitCode = exitErr.ExitCode()
		return nil
	}
	return err
}
