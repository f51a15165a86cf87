package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

func batchProps(ids ...string) []valuation.PropertyRequest {
	out := make([]valuation.PropertyRequest, len(ids))
	for i, id := range ids {
		out[i].Subject = model.SubjectProperty{ID: id}
	}
	return out
}

func okEvaluation(req valuation.PropertyRequest) *valuation.Evaluation {
	return &valuation.Evaluation{
		PropertyID: req.Subject.ID,
		Analysis:   &model.CompAnalysisResult{SubjectID: req.Subject.ID, ConfidenceLevel: model.ConfidenceLow},
	}
}

func TestProcessBatch_Empty(t *testing.T) {
	results, err := processBatch(context.Background(), nil, 0, 4, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestProcessBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	eval := func(_ context.Context, req valuation.PropertyRequest) (*valuation.Evaluation, error) {
		if req.Subject.ID == "bad" {
			return nil, errors.New("boom")
		}
		return okEvaluation(req), nil
	}

	results, err := processBatch(context.Background(), batchProps("a", "bad", "c"), 0, 2, eval)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].PropertyID)
	assert.NotNil(t, results[0].Evaluation)
	assert.Equal(t, "bad", results[1].PropertyID)
	assert.Equal(t, "boom", results[1].Error)
	assert.Nil(t, results[1].Evaluation)
	assert.Equal(t, "c", results[2].PropertyID)
	assert.Empty(t, results[2].Error)
}

func TestProcessBatch_Limit(t *testing.T) {
	var calls atomic.Int64
	eval := func(_ context.Context, req valuation.PropertyRequest) (*valuation.Evaluation, error) {
		calls.Add(1)
		return okEvaluation(req), nil
	}

	results, err := processBatch(context.Background(), batchProps("a", "b", "c", "d"), 2, 4, eval)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(2), calls.Load())
}

func TestProcessBatch_RespectsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64
	eval := func(_ context.Context, req valuation.PropertyRequest) (*valuation.Evaluation, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return okEvaluation(req), nil
	}

	_, err := processBatch(context.Background(), batchProps("a", "b", "c", "d", "e", "f", "g", "h"), 0, 3, eval)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := func(_ context.Context, req valuation.PropertyRequest) (*valuation.Evaluation, error) {
		return okEvaluation(req), nil
	}
	results, err := processBatch(ctx, batchProps("a", "b"), 0, 1, eval)
	require.NoError(t, err)
	for _, r := range results {
		assert.Contains(t, r.Error, "context canceled")
	}
}
