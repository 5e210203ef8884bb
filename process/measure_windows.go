// Copyright © 2021-2025 The Gomon Project.

package process

import (
	"errors"
	"unsafe"

	"github.com/StackExchange/wmi"
	"github.com/zosmac/gocore"

	"golang.org/x/sys/windows"
)

type (
	// PROCESS_MEMORY_COUNTERS_EX contains process memory counters.
	processMemoryCountersEx struct {
		cb                         uint32
		PageFaultCount             uint32
		PeakWorkingSetSize         uintptr
		WorkingSetSize             uintptr
		QuotaPeakPagedPoolUsage    uintptr
		QuotaPagedPoolUsage        uintptr
		QuotaPeakNonPagedPoolUsage uintptr
		QuotaNonPagedPoolUsage     uintptr
		PagefileUsage              uintptr
		PeakPagefileUsage          uintptr
		PrivateUsage               uintptr
	}

	// Win32_PerfFormattedData_PerfProc_Process is a WMI Class for process performance counters.
	// The name of a WMI query response object must be identical to the name of a WMI Class, as do
	// the field names for the query. Go reflection is used to generate the query by the wmi package.
	win32_PerfFormattedData_PerfProc_Process struct {
		IDProcess         uint32
		WorkingSetPrivate uint64
	}

	// Win32_ComputerSystem is a WMI Class for the computer system.
	win32_ComputerSystem struct {
		TotalPhysicalMemory uint64
	}
)

var (
	psapi                = windows.NewLazySystemDLL("psapi.dll")
	getProcessMemoryInfo = psapi.NewProc("GetProcessMemoryInfo").Call
)

const (
	stillActive = 259
)

// open opens a handle to query the process, which must still be active.
func (pid Pid) open() (windows.Handle, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) { // no such pid
			return 0, failure(pid, "OpenProcess", ErrNotFound)
		}
		return 0, classify(pid, "OpenProcess", err)
	}

	var code uint32
	if err := windows.GetExitCodeProcess(handle, &code); err == nil && code != stillActive {
		windows.CloseHandle(handle)
		return 0, failure(pid, "GetExitCodeProcess", ErrNotFound)
	}

	return handle, nil
}

// memory reads the working set and private (committed) sizes of the process.
func (pid Pid) memory() (uint64, uint64, error) {
	handle, err := pid.open()
	if err != nil {
		return 0, 0, err
	}
	defer windows.CloseHandle(handle)

	pmc := processMemoryCountersEx{
		cb: uint32(unsafe.Sizeof(processMemoryCountersEx{})),
	}
	if ret, _, err := getProcessMemoryInfo(
		uintptr(handle),
		uintptr(unsafe.Pointer(&pmc)),
		uintptr(pmc.cb),
	); ret == 0 {
		return 0, 0, classify(pid, "GetProcessMemoryInfo", err)
	}

	return uint64(pmc.WorkingSetSize), uint64(pmc.PrivateUsage), nil
}

// unique reads the private working set of the process.
func (pid Pid) unique() (uint64, error) {
	var wp []win32_PerfFormattedData_PerfProc_Process
	if err := wmi.Query(
		wmi.CreateQuery(&wp, "WHERE IDProcess = "+pid.String()),
		&wp,
	); err != nil {
		return 0, classify(pid, "Win32_PerfFormattedData_PerfProc_Process", err)
	}
	if len(wp) == 0 {
		return 0, failure(pid, "Win32_PerfFormattedData_PerfProc_Process", ErrNotFound)
	}
	return wp[0].WorkingSetPrivate, nil
}

// physical reads the total physical memory of the system.
func physical() (uint64, error) {
	var cs []win32_ComputerSystem
	if err := wmi.Query(wmi.CreateQuery(&cs, ""), &cs); err != nil {
		return 0, gocore.Error("Win32_ComputerSystem", err)
	}
	if len(cs) == 0 {
		return 0, gocore.Error("Win32_ComputerSystem", errors.New("no instance"))
	}
	return cs[0].TotalPhysicalMemory, nil
}

// Exists reports whether the pid maps to an active process.
func Exists(pid Pid) bool {
	if pid <= 0 {
		return false
	}
	handle, err := pid.open()
	if err != nil {
		return errors.Is(err, ErrDenied)
	}
	windows.CloseHandle(handle)
	return true
}

