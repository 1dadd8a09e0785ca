package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/gammadia/furnace/api"
	"github.com/gammadia/furnace/state"
)

func TestSortStacks(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	stacks := []api.Stack{
		{Name: "old-done", Status: "CREATE_COMPLETE", CreatedAt: base.Add(-3 * time.Hour)},
		{Name: "new-done", Status: "DELETE_FAILED", CreatedAt: base.Add(-1 * time.Hour)},
		{Name: "running", Status: "UPDATE_IN_PROGRESS", CreatedAt: base.Add(-2 * time.Hour)},
	}

	sortStacks(stacks)

	assert.Equal(t, "running", stacks[0].Name)
	assert.Equal(t, "new-done", stacks[1].Name)
	assert.Equal(t, "old-done", stacks[2].Name)
}

func TestStackStatusColor(t *testing.T) {
	assert.Equal(t, tcell.ColorYellow, stackStatusColor("CREATE_IN_PROGRESS"))
	assert.Equal(t, tcell.ColorRed, stackStatusColor("UPDATE_FAILED"))
	assert.Equal(t, tcell.ColorOrange, stackStatusColor("ROLLBACK_COMPLETE"))
	assert.Equal(t, tcell.ColorGreen, stackStatusColor("DELETE_COMPLETE"))
	assert.Equal(t, tcell.ColorWhite, stackStatusColor(""))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "5m 07s", formatDuration(5*time.Minute+7*time.Second))
	assert.Equal(t, "2h 05m 07s", formatDuration(2*time.Hour+5*time.Minute+7*time.Second))
}

func TestResourceProgress(t *testing.T) {
	got := resourceProgress([]state.ResourceRecord{
		{Name: "a", Status: "CREATE_COMPLETE"},
		{Name: "b", Status: "CREATE_COMPLETE"},
		{Name: "c", Status: "CREATE_IN_PROGRESS"},
		{Name: "d", Status: "CREATE_FAILED"},
		{Name: "e", Status: ""},
	})

	assert.Equal(t, "[yellow]1 run[-], [green]2 ok[-], [red]1 fail[-], [white]1 wait[-]", got)
}

func TestResourceProgress_Empty(t *testing.T) {
	assert.Equal(t, "", resourceProgress(nil))
}
