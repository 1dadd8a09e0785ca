package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gammadia/furnace/state"
)

func testRecord(name string) *state.StackRecord {
	return &state.StackRecord{
		ID:     "id-" + name,
		Name:   name,
		Status: "CREATE_COMPLETE",
		Resources: []state.ResourceRecord{
			{Name: "network", Type: "openstack::network", PhysicalID: "net-123", Properties: map[string]any{"admin_state_up": true}},
		},
		Outputs:   map[string]any{"network-id": "net-123"},
		CreatedAt: time.Now().Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveStack(ctx, testRecord("a")))
	require.NoError(t, store.SaveStack(ctx, testRecord("b")))

	records, err := store.LoadStacks(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveStack(ctx, testRecord("a")))
	updated := testRecord("a")
	updated.Status = "DELETE_IN_PROGRESS"
	require.NoError(t, store.SaveStack(ctx, updated))

	records, err := store.LoadStacks(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "DELETE_IN_PROGRESS", records[0].Status)
}

func TestRecordsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := New()

	original := testRecord("a")
	require.NoError(t, store.SaveStack(ctx, original))

	// Mutating the record after saving must not leak into the store
	original.Status = "MUTATED"
	original.Resources[0].PhysicalID = "changed"

	records, err := store.LoadStacks(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CREATE_COMPLETE", records[0].Status)
	assert.Equal(t, "net-123", records[0].Resources[0].PhysicalID)

	// And mutating a loaded record must not leak either
	records[0].Resources[0].PhysicalID = "changed"
	reloaded, err := store.LoadStacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "net-123", reloaded[0].Resources[0].PhysicalID)
}

func TestDeleteStack(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveStack(ctx, testRecord("a")))
	require.NoError(t, store.AppendEvent(ctx, &state.EventRecord{Stack: "a", Status: "CREATE_COMPLETE"}))

	require.NoError(t, store.DeleteStack(ctx, "a"))

	records, err := store.LoadStacks(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	events, err := store.ListEvents(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, events)

	// Deleting a missing stack is not an error
	assert.NoError(t, store.DeleteStack(ctx, "ghost"))
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.AppendEvent(ctx, &state.EventRecord{Stack: "a", Status: "CREATE_IN_PROGRESS"}))
	require.NoError(t, store.AppendEvent(ctx, &state.EventRecord{Stack: "a", Resource: "network", Status: "CREATE_COMPLETE"}))
	require.NoError(t, store.AppendEvent(ctx, &state.EventRecord{Stack: "other", Status: "CREATE_IN_PROGRESS"}))

	events, err := store.ListEvents(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "CREATE_IN_PROGRESS", events[0].Status)
	assert.Equal(t, "network", events[1].Resource)
}
