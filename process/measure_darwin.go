// Copyright © 2021-2025 The Gomon Project.

package process

/*
#include <libproc.h>
#include <sys/resource.h>
*/
import "C"

import (
	"unsafe"

	"github.com/zosmac/gocore"
	"golang.org/x/sys/unix"
)

// memory reads the resident and virtual sizes of the process.
func (pid Pid) memory() (uint64, uint64, error) {
	var pti C.struct_proc_taskinfo
	if n, err := C.proc_pidinfo(
		C.int(pid),
		C.PROC_PIDTASKINFO,
		0,
		unsafe.Pointer(&pti),
		C.int(C.PROC_PIDTASKINFO_SIZE),
	); n != C.int(C.PROC_PIDTASKINFO_SIZE) {
		return 0, 0, classify(pid, "proc_pidinfo PROC_PIDTASKINFO", err)
	}

	return uint64(pti.pti_resident_size), uint64(pti.pti_virtual_size), nil
}

// unique reads the physical footprint of the process, its private resident memory. This
// requires the caller to own the process or run as root.
func (pid Pid) unique() (uint64, error) {
	var rui C.struct_rusage_info_v2
	if rv, err := C.proc_pid_rusage(
		C.int(pid),
		C.RUSAGE_INFO_V2,
		(*C.rusage_info_t)(unsafe.Pointer(&rui)),
	); rv != 0 {
		return 0, classify(pid, "proc_pid_rusage RUSAGE_INFO_V2", err)
	}

	return uint64(rui.ri_phys_footprint), nil
}

// physical reads the total physical memory of the system.
func physical() (uint64, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, gocore.Error("sysctl hw.memsize", err)
	}
	return total, nil
}
