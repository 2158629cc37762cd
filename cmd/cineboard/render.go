package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cineboard/internal/session"
	"cineboard/internal/storyboard"
	"cineboard/internal/textutil"
)

const (
	titleColumnWidth = 32
	mediaColumnWidth = 48
)

func renderStoryboard(state session.State) string {
	board := state.Storyboard
	if board == nil {
		return "No storyboard. Run 'cineboard generate' with a story to create one.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %d scenes)\n", board.Title, board.Mode, len(board.Scenes))
	b.WriteString(sceneTable(board))
	b.WriteString("\n")
	if state.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", state.Error)
	}
	return b.String()
}

// sceneTable lays scenes out in sweep order with a footer tallying statuses
// and the attempts spent across the storyboard.
func sceneTable(board *storyboard.Storyboard) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Timecode", "Title", "Status", "Attempts", "Media"})

	attempts := 0
	for _, scene := range board.Scenes {
		attempts += scene.Attempts
		tw.AppendRow(table.Row{
			scene.Index,
			scene.Timecode,
			scene.Title,
			string(scene.Status),
			scene.Attempts,
			sceneOutcome(scene),
		})
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d scenes", len(board.Scenes)), statusTally(board.Counts()), attempts, ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, WidthMax: titleColumnWidth, WidthMaxEnforcer: text.WrapSoft},
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 6, WidthMax: mediaColumnWidth},
	})
	return tw.Render()
}

// statusTally lists only the statuses some scene is in, in sweep order.
func statusTally(counts map[storyboard.SceneStatus]int) string {
	parts := make([]string, 0, 4)
	for _, status := range []storyboard.SceneStatus{
		storyboard.StatusCompleted,
		storyboard.StatusFailed,
		storyboard.StatusGenerating,
		storyboard.StatusPending,
	} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	return strings.Join(parts, ", ")
}

func sceneOutcome(scene storyboard.Scene) string {
	if scene.Status == storyboard.StatusFailed {
		return truncate("error: "+scene.Error, mediaColumnWidth)
	}
	return mediaSummary(scene.MediaURL)
}

// mediaSummary keeps data URIs from flooding the table.
func mediaSummary(url string) string {
	switch {
	case url == "":
		return "-"
	case strings.HasPrefix(url, "data:"):
		mime, _, _ := strings.Cut(strings.TrimPrefix(url, "data:"), ";")
		return fmt.Sprintf("inline %s (%d bytes)", mime, len(url))
	default:
		return truncate(url, mediaColumnWidth)
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func renderSessionStatus(state session.State, colorize bool) []string {
	lines := renderSectionHeader("Session", colorize)
	phase := textutil.Label(string(state.Phase))
	lines = append(lines,
		renderStatusLine("Phase", phaseKind(state.Phase, state.Error), phase, colorize),
		renderStatusLine("Mode", statusInfo, string(state.Mode), colorize),
	)
	if state.Error != "" {
		lines = append(lines, renderStatusLine("Error", statusError, state.Error, colorize))
	}
	board := state.Storyboard
	if board == nil {
		lines = append(lines, renderStatusLine("Storyboard", statusInfo, "none", colorize))
		return lines
	}
	lines = append(lines, renderStatusLine("Storyboard", statusInfo, fmt.Sprintf("%s (%s)", board.Title, board.ID), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Scenes", colorize)...)
	counts := board.Counts()
	for _, status := range []storyboard.SceneStatus{
		storyboard.StatusCompleted,
		storyboard.StatusFailed,
		storyboard.StatusGenerating,
		storyboard.StatusPending,
	} {
		kind := sceneKind(status)
		if counts[status] == 0 {
			kind = statusInfo
		}
		lines = append(lines, renderStatusLine(textutil.Label(string(status)), kind, strconv.Itoa(counts[status]), colorize))
	}
	return lines
}
