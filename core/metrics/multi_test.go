package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	plans, solves int
	err           error
}

func (r *recordSink) RecordPlan(PlanRecord) error {
	r.plans++
	return r.err
}

func (r *recordSink) RecordSolve(SolveEvent) error {
	r.solves++
	return nil
}

type planOnly struct{ plans int }

func (p *planOnly) RecordPlan(PlanRecord) error {
	p.plans++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &planOnly{}
	m := NewMultiSink(s1, s2)
	require.NoError(t, m.RecordPlan(PlanRecord{PlanID: "p"}))
	require.NoError(t, m.RecordSolve(SolveEvent{Problem: "schedule"}))
	require.NoError(t, m.RecordFallback(FallbackEvent{}))
	assert.Equal(t, 1, s1.plans)
	assert.Equal(t, 1, s1.solves)
	assert.Equal(t, 1, s2.plans)
}

func TestMultiSinkKeepsGoingOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &planOnly{}
	err := NewMultiSink(s1, s2).RecordPlan(PlanRecord{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s2.plans)
}
