/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"time"
)

// logServed records a completed page write along with its size, client and
// latency.
func logServed(cfg *Config, what string, written int, r *http.Request, startTime time.Time) {
	logf(cfg, "SERVE: %s (%s) to %s in %s",
		what,
		byteCount(written),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

// byteCount formats n using decimal units, e.g. 1500 as "1.5 kB".
func byteCount(n int) string {
	const units = "kMGTPE"

	if n < 1000 {
		return fmt.Sprintf("%d B", n)
	}

	size := float64(n) / 1000
	exp := 0
	for size >= 1000 && exp < len(units)-1 {
		size /= 1000
		exp++
	}

	return fmt.Sprintf("%.1f %cB", size, units[exp])
}
