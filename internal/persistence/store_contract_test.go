package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/logicflow/pkg/api"
)

func sampleEvents(runID string) []api.Event {
	base := time.Unix(1700000000, 123)
	return []api.Event{
		{RunID: runID, At: base, Type: api.EventFlowStarted, Flow: "main", StepIndex: -1, Pass: 1},
		{RunID: runID, At: base.Add(time.Millisecond), Type: api.EventStepStarted, Flow: "main", Step: "inc", StepIndex: 0, Pass: 1},
		{RunID: runID, At: base.Add(2 * time.Millisecond), Type: api.EventStepFinished, Flow: "main", Step: "inc", StepIndex: 0, Pass: 1, Detail: "1ms"},
		{RunID: runID, At: base.Add(3 * time.Millisecond), Type: api.EventFlowFailed, Flow: "main", StepIndex: 1, Pass: 1, Detail: "boom"},
	}
}

// runEventStoreContract checks the behaviour every EventStore shares.
func runEventStoreContract(t *testing.T, store EventStore) {
	t.Helper()
	ctx := context.Background()

	a := sampleEvents("run-a")
	b := sampleEvents("run-b")[:2]

	// Interleave the two runs to check per-run ordering.
	for i := range a {
		require.NoError(t, store.AppendEvent(ctx, a[i]))
		if i < len(b) {
			require.NoError(t, store.AppendEvent(ctx, b[i]))
		}
	}

	gotA, err := store.ListEvents(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, gotA, len(a))
	for i := range a {
		require.True(t, a[i].At.Equal(gotA[i].At), "event %d time", i)
		gotA[i].At = a[i].At
		require.Equal(t, a[i], gotA[i], "event %d", i)
	}

	gotB, err := store.ListEvents(ctx, "run-b")
	require.NoError(t, err)
	require.Len(t, gotB, len(b))
	require.Equal(t, api.EventStepStarted, gotB[1].Type)

	missing, err := store.ListEvents(ctx, "run-missing")
	require.NoError(t, err)
	require.Empty(t, missing)

	err = store.AppendEvent(ctx, api.Event{Type: api.EventFlowStarted})
	require.ErrorIs(t, err, ErrEmptyRunID)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"run-a", "run-b"}, runs)
}
