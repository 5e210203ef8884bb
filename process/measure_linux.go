// Copyright © 2021-2025 The Gomon Project.

package process

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zosmac/gocore"
)

var (
	// procRoot is the mount point of the proc filesystem.
	procRoot = "/proc"

	// procOpen opens a proc filesystem file.
	procOpen = func(name string) (io.ReadCloser, error) { return os.Open(name) }
)

// memory reads the resident and virtual sizes of the process.
func (pid Pid) memory() (uint64, uint64, error) {
	m, err := gocore.Measures(filepath.Join(procRoot, pid.String(), "status"))
	if err != nil {
		return 0, 0, classify(pid, "status", err)
	}
	if len(m) == 0 || strings.HasPrefix(m["State"], "Z") { // exited, or a zombie awaiting its parent
		return 0, 0, failure(pid, "status", ErrNotFound)
	}

	// kernel threads report neither
	return kb(m["VmRSS"]), kb(m["VmSize"]), nil
}

// unique reads the unique set size, the private pages of the process. Reading smaps requires
// ptrace read access to the process.
func (pid Pid) unique() (uint64, error) {
	f, err := procOpen(filepath.Join(procRoot, pid.String(), "smaps_rollup"))
	if err != nil && !os.IsPermission(err) { // kernel 4.14+
		f, err = procOpen(filepath.Join(procRoot, pid.String(), "smaps"))
	}
	if err != nil {
		return 0, classify(pid, "smaps", err)
	}
	defer f.Close()

	uss, err := private(f)
	if err != nil {
		return 0, classify(pid, "smaps", err)
	}
	return uss, nil
}

// private totals the Private_Clean, Private_Dirty, and Private_Hugetlb pages of each mapping.
func private(r io.Reader) (uint64, error) {
	var total uint64
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		l := sc.Text()
		if !strings.HasPrefix(l, "Private") {
			continue
		}
		_, v, ok := strings.Cut(l, ":")
		if !ok {
			continue
		}
		total += kb(v)
	}
	return total, sc.Err()
}

// physical reads the total physical memory of the system.
func physical() (uint64, error) {
	m, err := gocore.Measures(filepath.Join(procRoot, "meminfo"))
	if err != nil {
		return 0, gocore.Error("meminfo", err)
	}
	total := kb(m["MemTotal"])
	if total == 0 {
		return 0, gocore.Error("meminfo", errors.New("MemTotal not reported"))
	}
	return total, nil
}

// kb converts a proc filesystem value in kB units to bytes.
func kb(v string) uint64 {
	f := strings.Fields(v)
	if len(f) == 0 {
		return 0
	}
	n, _ := strconv.ParseUint(f[0], 10, 64)
	return n * 1024
}
