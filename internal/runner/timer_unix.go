//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package runner

import (
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// rusageTimer takes CPU times from RUSAGE_CHILDREN, so descendants that the
// target reaps are accounted to it as well.
type rusageTimer struct{}

func init() {
	processTimer = rusageTimer{}
}

func (rusageTimer) Run(cmd *exec.Cmd) (Measurement, error) {
	var before, after unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &before); err != nil {
		return Measurement{}, err
	}

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return Measurement{}, err
	}
	err := cmd.Wait()
	m := Measurement{Real: time.Since(startTime)}

	if rerr := unix.Getrusage(unix.RUSAGE_CHILDREN, &after); rerr == nil {
		m.User = time.Duration(after.Utime.Nano() - before.Utime.Nano())
		m.Kernel = time.Duration(after.Stime.Nano() - before.Stime.Nano())
	}
	return m, exitStatus(&m, err)
}
