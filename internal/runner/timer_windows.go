//go:build windows

package runner

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// https://learn.microsoft.com/en-us/windows/win32/api/processthreadsapi/nf-processthreadsapi-getprocesstimes

const (
	jobObjectBasicAccountingInformation = 1
	hundredNSTicks                      = 100
)

type jobObjectBasicAccountingInfo struct {
	TotalUserTime             int64
	TotalKernelTime           int64
	ThisPeriodTotalUserTime   int64
	ThisPeriodTotalKernelTime int64
	TotalPageFaultCount       uint32
	TotalProcesses            uint32
	ActiveProcesses           uint32
	TotalTerminatedProcesses  uint32
}

// jobTimer starts the target suspended inside a job object so the CPU time
// of every process it spawns is accounted, and only starts the clock once
// the main thread is resumed.
type jobTimer struct{}

func init() {
	processTimer = jobTimer{}
}

func (jobTimer) Run(cmd *exec.Cmd) (Measurement, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_SUSPENDED,
	}
	if err := cmd.Start(); err != nil {
		return Measurement{}, err
	}
	pid := uint32(cmd.Process.Pid)

	abort := func(err error) (Measurement, error) {
		cmd.Process.Kill()
		cmd.Wait()
		return Measurement{}, err
	}

	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return abort(fmt.Errorf("creating job object: %w", err))
	}
	defer terminateJobObject(job)

	hProcess, err := windows.OpenProcess(windows.SPECIFIC_RIGHTS_ALL, false, pid)
	if err != nil {
		return abort(err)
	}
	err = windows.AssignProcessToJobObject(job, hProcess)
	windows.CloseHandle(hProcess)
	if err != nil {
		return abort(fmt.Errorf("assigning process to job: %w", err))
	}

	hThread, err := getMainThreadOfPID(pid)
	if err != nil {
		return abort(err)
	}
	defer windows.CloseHandle(hThread)

	startTime := time.Now()
	if _, err := windows.ResumeThread(hThread); err != nil {
		return abort(fmt.Errorf("resuming main thread: %w", err))
	}
	err = cmd.Wait()
	m := Measurement{Real: time.Since(startTime)}

	var info jobObjectBasicAccountingInfo
	if qerr := queryJobAccountingInfo(job, &info); qerr == nil {
		m.User = time.Duration(info.TotalUserTime * hundredNSTicks)
		m.Kernel = time.Duration(info.TotalKernelTime * hundredNSTicks)
	}
	return m, exitStatus(&m, err)
}

// getMainThreadOfPID opens the first thread owned by pid.
func getMainThreadOfPID(pid uint32) (windows.Handle, error) {
	hSnapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return windows.InvalidHandle, err
	}
	defer windows.CloseHandle(hSnapshot)

	var threadEntry windows.ThreadEntry32
	threadEntry.Size = uint32(unsafe.Sizeof(threadEntry))

	err = windows.Thread32First(hSnapshot, &threadEntry)
	for err == nil {
		if threadEntry.OwnerProcessID == pid {
			return windows.OpenThread(windows.THREAD_SUSPEND_RESUME, false, threadEntry.ThreadID)
		}
		err = windows.Thread32Next(hSnapshot, &threadEntry)
	}
	return windows.InvalidHandle, fmt.Errorf("no thread found for process %d: %w", pid, err)
}

func queryJobAccountingInfo(job windows.Handle, info *jobObjectBasicAccountingInfo) error {
	return windows.QueryInformationJobObject(job,
		jobObjectBasicAccountingInformation,
		uintptr(unsafe.Pointer(info)),
		uint32(unsafe.Sizeof(*info)), nil)
}

// terminateJobObject kills whatever the target left running in the job and
// closes the handle.
func terminateJobObject(job windows.Handle) error {
	if err := windows.TerminateJobObject(job, 0); err != nil {
		windows.CloseHandle(job)
		return err
	}
	return windows.CloseHandle(job)
}
