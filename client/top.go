package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gammadia/furnace/api"
	"github.com/gammadia/furnace/state"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the status of the server",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		// First fetch outside the UI, so a dead server fails fast
		status, err := client.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch server status: %w", err)
		}

		app := tview.NewApplication()

		// Header
		header := tview.NewTextView().
			SetDynamicColors(true).
			SetWordWrap(true).
			SetTextAlign(tview.AlignLeft)
		header.SetBorder(true).SetTitle(" Furnace ")

		// Stacks table
		stacksTable := tview.NewTable().
			SetFixed(1, 0).
			SetSelectable(true, false)
		stacksTable.SetBorder(true).SetTitle(" Stacks ")

		// Resources table for the selected stack
		resourcesTable := tview.NewTable().
			SetFixed(1, 0).
			SetSelectable(true, false)
		resourcesTable.SetBorder(true).SetTitle(" Resources ")

		// Layout
		layout := tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(header, 5, 0, false).
			AddItem(stacksTable, 0, 1, false).
			AddItem(resourcesTable, 0, 1, false)

		// Focus cycling: Tab switches between stacks and resources tables
		focusables := []tview.Primitive{stacksTable, resourcesTable}
		focusIndex := 0
		app.SetFocus(stacksTable)

		// Input handling
		app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
			if event.Key() == tcell.KeyTab || event.Key() == tcell.KeyBacktab {
				if event.Key() == tcell.KeyBacktab {
					focusIndex = (focusIndex + len(focusables) - 1) % len(focusables)
				} else {
					focusIndex = (focusIndex + 1) % len(focusables)
				}
				app.SetFocus(focusables[focusIndex])
				return nil
			}
			return event
		})

		// State for rendering, only accessed from tview's event loop (via
		// QueueUpdateDraw)
		lastStatus := &status
		var lastStacks []api.Stack

		updateHeader := func() {
			header.Clear()

			uptime := ""
			if !lastStatus.StartedAt.IsZero() {
				d := time.Since(lastStatus.StartedAt)
				hours := int(d.Hours())
				minutes := int(d.Minutes()) % 60
				seconds := int(d.Seconds()) % 60
				uptime = fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
			}

			fmt.Fprintf(header, " [yellow]Furnace[white] %s  |  Uptime: [green]%s[white]\n",
				lastStatus.Version, uptime)
			fmt.Fprintf(header, " Store: [yellow]%s[white]  |  Providers: [yellow]%s[white]  |  Resource Types: [yellow]%d[white]  |  In Progress: [yellow]%d[white]",
				lastStatus.Store, strings.Join(lastStatus.Providers, ", "), len(lastStatus.ResourceTypes), lastStatus.OperationsInProgress)
		}

		selectedStack := func() *api.Stack {
			row, _ := stacksTable.GetSelection()
			if row < 1 || row > len(lastStacks) {
				return nil
			}
			return &lastStacks[row-1]
		}

		updateResources := func() {
			resourcesTable.Clear()
			resourcesTable.ScrollToBeginning()

			stack := selectedStack()
			if stack == nil {
				resourcesTable.SetTitle(" Resources ")
				return
			}
			resourcesTable.SetTitle(fmt.Sprintf(" Resources of %s (%d) ", stack.Name, len(stack.Resources)))

			// Header row
			for col, title := range []string{"NAME", "TYPE", "STATUS", "PHYSICAL ID"} {
				resourcesTable.SetCell(0, col, tview.NewTableCell(title).
					SetTextColor(tcell.ColorYellow).
					SetSelectable(false).
					SetExpansion(1))
			}

			for row, res := range stack.Resources {
				resourcesTable.SetCell(row+1, 0, tview.NewTableCell(res.Name).
					SetTextColor(tcell.ColorWhite).
					SetExpansion(1))
				resourcesTable.SetCell(row+1, 1, tview.NewTableCell(res.Type).
					SetTextColor(tcell.ColorWhite).
					SetExpansion(1))
				resourcesTable.SetCell(row+1, 2, tview.NewTableCell(res.Status).
					SetTextColor(stackStatusColor(res.Status)).
					SetExpansion(1))
				resourcesTable.SetCell(row+1, 3, tview.NewTableCell(res.PhysicalID).
					SetTextColor(tcell.ColorGray).
					SetExpansion(2))
			}
		}

		updateStacks := func() {
			stacksTable.Clear()
			stacksTable.ScrollToBeginning()

			stacksTable.SetTitle(fmt.Sprintf(" Stacks (%d) ", len(lastStacks)))

			// Header row
			for col, title := range []string{"NAME", "STATUS", "CREATED", "ELAPSED", "RESOURCES", "PROGRESS"} {
				stacksTable.SetCell(0, col, tview.NewTableCell(title).
					SetTextColor(tcell.ColorYellow).
					SetSelectable(false).
					SetExpansion(1))
			}

			now := time.Now()
			for row, stack := range lastStacks {
				nameColor := tcell.ColorAqua
				if terminalStatus(stack.Status) {
					nameColor = tcell.ColorGray
				}
				stacksTable.SetCell(row+1, 0, tview.NewTableCell(stack.Name).
					SetTextColor(nameColor).
					SetExpansion(1))

				stacksTable.SetCell(row+1, 1, tview.NewTableCell(stack.Status).
					SetTextColor(stackStatusColor(stack.Status)).
					SetExpansion(1))

				// Created time: show time only for today, date+time otherwise
				created := ""
				if !stack.CreatedAt.IsZero() {
					t := stack.CreatedAt.Local()
					if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
						created = t.Format("15:04:05")
					} else {
						created = t.Format("02 Jan 15:04")
					}
				}
				stacksTable.SetCell(row+1, 2, tview.NewTableCell(created).
					SetTextColor(tcell.ColorWhite).
					SetExpansion(1))

				// Elapsed since the last transition, live for running operations
				var elapsed time.Duration
				if terminalStatus(stack.Status) {
					elapsed = stack.UpdatedAt.Sub(stack.CreatedAt)
				} else {
					elapsed = now.Sub(stack.UpdatedAt)
				}
				elapsedColor := tcell.ColorWhite
				if terminalStatus(stack.Status) {
					elapsedColor = tcell.ColorGray
				}
				stacksTable.SetCell(row+1, 3, tview.NewTableCell(formatDuration(elapsed)).
					SetTextColor(elapsedColor).
					SetExpansion(1))

				stacksTable.SetCell(row+1, 4, tview.NewTableCell(fmt.Sprintf("%d", len(stack.Resources))).
					SetTextColor(tcell.ColorWhite).
					SetExpansion(1))

				stacksTable.SetCell(row+1, 5, tview.NewTableCell(resourceProgress(stack.Resources)).
					SetExpansion(2))
			}
		}

		updateAll := func() {
			updateHeader()
			updateStacks()
			updateResources()
		}
		updateAll()

		stacksTable.SetSelectionChangedFunc(func(row, column int) {
			updateResources()
		})

		// done is closed when the app stops, to signal the poller to exit.
		done := make(chan struct{})

		// Poller: the API has no streaming endpoint, so refresh periodically
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					status, statusErr := client.Status(cmd.Context())
					stacks, stacksErr := client.ListStacks(cmd.Context())
					if statusErr != nil || stacksErr != nil {
						app.Stop()
						return
					}
					sortStacks(stacks)
					app.QueueUpdateDraw(func() {
						lastStatus = &status
						lastStacks = stacks
						updateAll()
					})
				}
			}
		}()

		err = app.SetRoot(layout, true).Run()
		close(done)
		return err
	},
}

// sortStacks orders running operations first, then newest stacks first.
func sortStacks(stacks []api.Stack) {
	sort.Slice(stacks, func(i, j int) bool {
		iDone := terminalStatus(stacks[i].Status)
		jDone := terminalStatus(stacks[j].Status)
		if iDone != jDone {
			return !iDone
		}
		return stacks[i].CreatedAt.After(stacks[j].CreatedAt)
	})
}

func stackStatusColor(status string) tcell.Color {
	switch {
	case strings.HasSuffix(status, "_IN_PROGRESS"):
		return tcell.ColorYellow
	case strings.HasSuffix(status, "_FAILED"):
		return tcell.ColorRed
	case strings.HasPrefix(status, "ROLLBACK"), strings.HasSuffix(status, "_SKIPPED"):
		return tcell.ColorOrange
	case strings.HasSuffix(status, "_COMPLETE"):
		return tcell.ColorGreen
	default:
		return tcell.ColorWhite
	}
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func resourceProgress(resources []state.ResourceRecord) string {
	var pending, running, completed, failed, skipped int
	for _, res := range resources {
		switch {
		case res.Status == "":
			pending++
		case strings.HasSuffix(res.Status, "_IN_PROGRESS"):
			running++
		case strings.HasSuffix(res.Status, "_COMPLETE"):
			completed++
		case strings.HasSuffix(res.Status, "_FAILED"):
			failed++
		case strings.HasSuffix(res.Status, "_SKIPPED"):
			skipped++
		}
	}

	parts := []string{}
	if running > 0 {
		parts = append(parts, fmt.Sprintf("[yellow]%d run[-]", running))
	}
	if completed > 0 {
		parts = append(parts, fmt.Sprintf("[green]%d ok[-]", completed))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("[red]%d fail[-]", failed))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("[gray]%d skip[-]", skipped))
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("[white]%d wait[-]", pending))
	}

	return strings.Join(parts, ", ")
}
