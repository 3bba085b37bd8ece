package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"ward/internal/daemon"
	"ward/internal/preflight"
	"ward/internal/textutil"
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
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
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
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := textutil.Ternary(r.Passed, statusOK, statusError)
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func daemonLines(status *daemon.Status, colorize bool) []string {
	if status == nil || !status.Running {
		return []string{renderStatusLine("Daemon", statusWarn, "Not running", colorize)}
	}

	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize),
		renderStatusLine("Host bridge", statusInfo, textutil.FirstNonEmpty(status.BridgeAddr, "disabled"), colorize),
	}

	player := status.Player
	switch {
	case !player.Connected:
		lines = append(lines, renderStatusLine("Companion", statusWarn, "No updates received", colorize))
	case player.State.Title == "":
		lines = append(lines, renderStatusLine("Companion", statusOK, "Connected, nothing playing", colorize))
	default:
		now := player.State.Title
		if player.State.ArtistLine != "" {
			now += " by " + player.State.ArtistLine
		}
		lines = append(lines, renderStatusLine("Companion", statusOK, now, colorize))
	}
	if player.Dropped > 0 {
		lines = append(lines, renderStatusLine("Dropped commands", statusWarn, fmt.Sprintf("%d", player.Dropped), colorize))
	}

	mon := status.Monitor
	monitorKind := statusOK
	if !mon.Running {
		monitorKind = statusError
	}
	lines = append(lines, renderStatusLine("Monitor", monitorKind,
		fmt.Sprintf("%d evaluations, %d interventions", mon.Evaluations, mon.Interventions), colorize))
	if mon.LastRule != "" {
		lines = append(lines, renderStatusLine("Last block", statusInfo,
			fmt.Sprintf("%s (%s: %s)", mon.LastItem, mon.LastTier, mon.LastRule), colorize))
	}

	snap := mon.Snapshot
	lines = append(lines, renderStatusLine("Snapshot", statusInfo,
		fmt.Sprintf("%d artists, %d keywords, %d tracks, %d remote",
			snap.ManualArtists, snap.Keywords, snap.Tracks, snap.RemoteArtists), colorize))

	if cat := status.Catalog; cat != nil {
		switch {
		case cat.LastError != "":
			lines = append(lines, renderStatusLine("Catalog", statusWarn, cat.LastError, colorize))
		case cat.LastSuccess.IsZero():
			lines = append(lines, renderStatusLine("Catalog", statusInfo, "Not refreshed yet", colorize))
		default:
			lines = append(lines, renderStatusLine("Catalog", statusOK,
				fmt.Sprintf("%d artists, refreshed %s", cat.Count, cat.LastSuccess.Local().Format(time.DateTime)), colorize))
		}
	}
	return lines
}
