// Copyright © 2021-2025 The Gomon Project.

// Package format renders memory samples as human scaled, column aligned text.
package format

import (
	"fmt"
	"strings"

	"github.com/zosmac/pidmon/process"
)

const (
	// TimeFormat renders a sample's timestamp.
	TimeFormat = "2006-01-02 15:04:05"

	// Unavailable is displayed for a value that the process' owner may not read.
	Unavailable = "N/A (requires elevated privileges)"

	// column widths
	valueWidth   = 15
	percentWidth = 10
)

var (
	// units scale byte counts by successive factors of 1024.
	units = []string{"B", "KB", "MB", "GB", "TB", "PB"}
)

// Size scales a byte count to the largest unit that keeps it below 1024, up to PB.
func Size(n uint64) string {
	v := float64(n)
	for _, unit := range units[:len(units)-1] {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f %s", v, units[len(units)-1])
}

// Bytes formats an optional byte count, passing through the Unavailable text unchanged.
func Bytes(b process.Optional[uint64]) string {
	n, ok := b.Get()
	if !ok {
		return Unavailable
	}
	return Size(n)
}

// Percent formats an optional percentage with two decimals.
func Percent(p process.Optional[float64]) string {
	v, ok := p.Get()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", v)
}

// Header returns the column titles and separator lines that precede the rows.
func Header(detailed bool) []string {
	titles := []string{
		fmt.Sprintf("%-*s", len(TimeFormat), "Timestamp"),
		fmt.Sprintf("%-*s", valueWidth, "RSS (resident)"),
		fmt.Sprintf("%-*s", valueWidth, "VMS (virtual)"),
	}
	if detailed {
		titles = append(titles,
			fmt.Sprintf("%-*s", valueWidth, "USS (unique)"),
			fmt.Sprintf("%-*s", percentWidth, "Memory %"),
		)
	}
	title := strings.Join(titles, " | ")
	return []string{title, strings.Repeat("-", len(title))}
}

// Row renders a sample as one line of the table. Columns are padded to a minimum width so
// that a wider value, such as the Unavailable text, is never cut short.
func Row(s process.Sample, detailed bool) string {
	row := fmt.Sprintf("%s | %-*s | %-*s",
		s.Time.Format(TimeFormat),
		valueWidth, Size(s.Rss),
		valueWidth, Size(s.Vms),
	)
	if detailed {
		row += fmt.Sprintf(" | %-*s | %-*s",
			valueWidth, Bytes(s.Uss),
			percentWidth, Percent(s.Percent),
		)
	}
	return row
}

// Summary reports the session's peak resident set size.
func Summary(peak uint64) string {
	return "Peak RSS: " + Size(peak)
}
