// Package humanize formats byte counts for log lines, adapted from
// internal/shared/bytes.FmtMem.
package humanize

import "fmt"

// unit pairs a size threshold with the label to report counts above it.
type unit struct {
	threshold uint64
	label     string
}

var units = []unit{
	{1024 * 1024 * 1024 * 1024, "TB"},
	{1024 * 1024 * 1024, "GB"},
	{1024 * 1024, "MB"},
	{1024, "KB"},
}

// Bytes formats a byte count as a whole-unit plus remainder pair, e.g.
// "5KB 512B" or "2GB 128MB". Counts under 1KB render as a bare byte count.
func Bytes(n uint64) string {
	for i, u := range units {
		if n < u.threshold {
			continue
		}
		whole := n / u.threshold
		rem := n % u.threshold
		if i == len(units)-1 {
			return fmt.Sprintf("%d%s %dB", whole, u.label, rem)
		}
		next := units[i+1]
		return fmt.Sprintf("%d%s %d%s", whole, u.label, rem/next.threshold, next.label)
	}
	return fmt.Sprintf("%dB", n)
}
