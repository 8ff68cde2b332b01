package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusMarkers = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusLine is one labelled row of a status report.
type statusLine struct {
	label  string
	kind   statusKind
	detail string
}

const statusIndent = "  "

// renderStatusLines writes the lines with labels padded to a common width so
// the markers form a column.
func renderStatusLines(w io.Writer, lines []statusLine, colorize bool) {
	width := 0
	for _, line := range lines {
		if n := len(line.label) + 1; n > width {
			width = n
		}
	}
	for _, line := range lines {
		marker := statusMarkers[line.kind]
		body := fmt.Sprintf("[%s]", marker.label)
		if line.detail != "" {
			body += " " + line.detail
		}
		rendered := fmt.Sprintf("%s%-*s %s", statusIndent, width, line.label+":", body)
		if colorize && marker.color != "" {
			rendered = marker.color + rendered + ansiReset
		}
		fmt.Fprintln(w, rendered)
	}
}

func renderSectionHeader(w io.Writer, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, rule)
}

func connectivityLine(online bool) statusLine {
	if online {
		return statusLine{label: "Backend", kind: statusOK, detail: "Online"}
	}
	return statusLine{label: "Backend", kind: statusWarn, detail: "Offline; records queue locally"}
}

func syncActivityLine(syncing bool) statusLine {
	detail := "Idle"
	if syncing {
		detail = "Drain in progress"
	}
	return statusLine{label: "Sync", kind: statusInfo, detail: detail}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
