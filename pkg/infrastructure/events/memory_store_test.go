package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

func testPair() entities.SupplierPair {
	return entities.SupplierPair{
		Base:  entities.Supplier{Name: "FarAway", Capacity: 60000, LeadTimeMonths: 3},
		Surge: entities.Supplier{Name: "VeryClose", Capacity: 40000},
	}
}

func TestInMemoryEventStore_RunStream(t *testing.T) {
	store := NewInMemoryEventStore(zap.NewNop())
	runID := uuid.New()
	otherRun := uuid.New()

	require.NoError(t, store.AppendEvent(runID.String(), NewRunStartedEvent(runID, 4, 4)))
	require.NoError(t, store.AppendEvent(otherRun.String(), NewRunStartedEvent(otherRun, 2, 1)))
	require.NoError(t, store.AppendEvent(runID.String(), NewPairOptimizedEvent(runID, &entities.OptimizationResult{
		Pair:        testPair(),
		BestPlan:    entities.OrderPlan{BaseQty: 50000},
		Termination: entities.TerminationConverged,
	})))
	require.NoError(t, store.AppendEvent(runID.String(), NewPairInfeasibleEvent(runID, entities.PairFailure{
		Pair:   testPair(),
		Reason: "boom",
	})))

	stream, err := store.ReadEvents(runID.String(), 0)
	require.NoError(t, err)
	require.Len(t, stream, 3)
	for i, e := range stream {
		assert.Equal(t, i+1, e.Version())
		assert.Equal(t, runID.String(), e.StreamID())
	}
	assert.Equal(t, RunStartedEvent, stream[0].Type())
	optimized, ok := stream[1].Data().(PairOptimized)
	require.True(t, ok)
	assert.Equal(t, "FarAway+VeryClose", optimized.Pair)
	assert.Equal(t, entities.TerminationConverged, optimized.Termination)

	tail, err := store.ReadEvents(runID.String(), 3)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, PairInfeasibleEvent, tail[0].Type())

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	missing, err := store.ReadEvents(uuid.NewString(), 1)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestInMemoryEventStore_Subscribers(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	runID := uuid.New()

	var mu sync.Mutex
	var seen []string
	handler := &HandlerFunc{
		Types: []string{RunCompletedEvent},
		Fn: func(e Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, e.Type())
			return errors.New("handler errors are logged, not returned")
		},
	}
	require.NoError(t, store.Subscribe([]string{RunCompletedEvent}, handler))

	record := &entities.RunRecord{ID: runID, StartedAt: time.Now()}
	record.CompletedAt = record.StartedAt.Add(time.Second)
	require.NoError(t, store.AppendEvent(runID.String(), NewRunStartedEvent(runID, 1, 1)))
	require.NoError(t, store.AppendEvent(runID.String(), NewRunCompletedEvent(record)))
	store.Wait()

	mu.Lock()
	assert.Equal(t, []string{RunCompletedEvent}, seen)
	mu.Unlock()

	require.NoError(t, store.Unsubscribe(handler))
	require.NoError(t, store.AppendEvent(runID.String(), NewRunCompletedEvent(record)))
	store.Wait()

	mu.Lock()
	assert.Len(t, seen, 1)
	mu.Unlock()

	completed, err := store.ReadEvents(runID.String(), 2)
	require.NoError(t, err)
	assert.Equal(t, time.Second, completed[0].Data().(RunCompleted).Duration)
}
