package main

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var labelCaser = cases.Title(language.AmericanEnglish)

// entityLabel turns a wire entity type like "gate_entry" into a display
// label like "Gate Entry".
func entityLabel(entityType string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(entityType), "_", " ")
	if cleaned == "" {
		return "Unknown"
	}
	return labelCaser.String(cleaned)
}

func priorityLabel(priority int) string {
	switch priority {
	case 1:
		return "critical"
	case 2:
		return "high"
	default:
		return "normal"
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
