package main

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gammadia/furnace/api"
	"github.com/gammadia/furnace/state"
	"github.com/rivo/uniseg"
	"github.com/samber/lo"
)

// Operation header: <15m ⏱️ / 15-30m 🐢 / 30m+ 🧟
const operationSlowThreshold = 15 * time.Minute
const operationVerySlowThreshold = 30 * time.Minute

func emoji(emoji string) string {
	return emoji + strings.Repeat(" ", utf8.RuneCountInString(emoji))
}

// itemsPrinter renders a resource name list, truncated so the line stays
// readable while the operation runs. In verbose mode everything is shown.
func itemsPrinter(items []string, last, verbose bool) string {
	nbItems := len(items)
	if nbItems < 1 {
		return ""
	}

	// Try to display the first or last 20 items, as long as displaying them
	// doesn't exceed 180 characters... except in verbose mode, where we
	// display everything.
	displayItems := 20
	lineLength := 180
	if verbose {
		displayItems = math.MaxInt32
		lineLength = math.MaxInt32
	}
	partial := nbItems > displayItems
	var nItems []string
	for displayItems > 0 {
		if last {
			nItems = items[max(0, nbItems-displayItems):]
		} else {
			nItems = items[:min(nbItems, displayItems)]
		}
		if uniseg.GraphemeClusterCount(strings.Join(nItems, " ")) <= lineLength {
			break
		}
		displayItems -= 1
		partial = true
	}

	if last {
		return fmt.Sprintf("%s%s (%s%d)", lo.Ternary(partial, "… ", ""), strings.Join(nItems, " "), emoji("📝"), nbItems)
	}
	return fmt.Sprintf("%s%s (%s%d)", strings.Join(nItems, " "), lo.Ternary(partial, " …", ""), emoji("📝"), nbItems)
}

// renderResourceStats groups a stack's resources by lifecycle state, one
// line per non-empty group.
func renderResourceStats(resources []state.ResourceRecord, verbose bool) string {
	pending := []string{}
	running := []string{}
	skipped := []string{}
	failed := []string{}
	completed := []string{}

	for _, res := range resources {
		switch {
		case res.Status == "":
			pending = append(pending, res.Name)
		case strings.HasSuffix(res.Status, "_IN_PROGRESS"):
			running = append(running, res.Name)
		case strings.HasSuffix(res.Status, "_SKIPPED"):
			skipped = append(skipped, res.Name)
		case strings.HasSuffix(res.Status, "_FAILED"):
			failed = append(failed, res.Name)
		case strings.HasSuffix(res.Status, "_COMPLETE"):
			completed = append(completed, res.Name)
		}
	}

	statItems := []string{}
	if len(pending) > 0 {
		statItems = append(statItems, emoji("⏳")+itemsPrinter(pending, false, verbose))
	}
	if len(running) > 0 {
		statItems = append(statItems, emoji("⚙️")+itemsPrinter(running, false, verbose))
	}
	if len(skipped) > 0 {
		statItems = append(statItems, emoji("🛑")+itemsPrinter(skipped, true, verbose))
	}
	if len(failed) > 0 {
		statItems = append(statItems, emoji("💥")+itemsPrinter(failed, true, verbose))
	}
	if len(completed) > 0 {
		statItems = append(statItems, emoji("✅")+itemsPrinter(completed, true, verbose))
	}

	return strings.Join(statItems, "\n")
}

// renderWatchTimestamp shows how long the operation has been running,
// slowness signalled by increasingly desperate animals.
func renderWatchTimestamp(stack *api.Stack, startedAt, now time.Time) string {
	if terminalStatus(stack.Status) {
		return emoji("🏁") + stack.UpdatedAt.Sub(startedAt).Truncate(time.Second).String()
	}
	runningFor := now.Sub(startedAt).Truncate(time.Second)
	runningForEmoji := lo.Ternary(runningFor >= operationSlowThreshold, lo.Ternary(runningFor >= operationVerySlowThreshold, "🧟", "🐢"), "⏱️")
	return emoji(runningForEmoji) + runningFor.String()
}

func renderWatchHeader(stack *api.Stack, timestamp string) string {
	return fmt.Sprintf("Stack '%s' %s (%s%d, %s)", stack.Name, stack.Status, emoji("📝"), len(stack.Resources), timestamp)
}
