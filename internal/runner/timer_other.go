//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package runner

import (
	"os/exec"
	"time"
)

type processStateTimer struct{}

func init() {
	processTimer = processStateTimer{}
}

func (processStateTimer) Run(cmd *exec.Cmd) (Measurement, error) {
	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return Measurement{}, err
	}
	err := cmd.Wait()
	m := Measurement{Real: time.Since(startTime)}
	if cmd.ProcessState != nil {
		m.User = cmd.ProcessState.UserTime()
		m.Kernel = cmd.ProcessState.SystemTime()
	}
	return m, exitStatus(&m, err)
}
