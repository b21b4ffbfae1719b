package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatProgress(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
