// Copyright © 2021-2025 The Gomon Project.

package monitor

import (
	"github.com/zosmac/pidmon/process"
)

// UpdatePeak returns the greater of the peak so far and the sample's resident set size.
func UpdatePeak(peak uint64, s process.Sample) uint64 {
	return max(peak, s.Rss)
}
