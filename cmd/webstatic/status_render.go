package main

import (
	"fmt"
	"io"
	"strings"

	"webstatic/internal/logging"
	"webstatic/internal/preflight"
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

const (
	statusLabelWidth = 28
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabels[kind]
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColors[kind]; color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

var statusKindLabels = map[statusKind]string{
	statusInfo:  "INFO",
	statusOK:    "OK",
	statusWarn:  "WARN",
	statusError: "ERROR",
}

var statusKindColors = map[statusKind]string{
	statusInfo:  ansiBlue,
	statusOK:    ansiGreen,
	statusWarn:  ansiYellow,
	statusError: ansiRed,
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	return logging.IsTerminal(writer)
}

// renderCheckResults renders preflight results as status lines under a
// section header, followed by a tally.
func renderCheckResults(title string, results []preflight.Result, colorize bool) []string {
	lines := renderSectionHeader(title, colorize)
	var failed, warned int
	for _, r := range results {
		kind := statusOK
		switch {
		case !r.Passed:
			kind = statusError
			failed++
		case r.Warning:
			kind = statusWarn
			warned++
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	summary := fmt.Sprintf("%d checks, %d failed, %d warnings", len(results), failed, warned)
	lines = append(lines, "", renderStatusLine("Summary", statusInfo, summary, colorize))
	return lines
}
