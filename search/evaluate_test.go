package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coursekb/virtual-ta/index"
	"github.com/coursekb/virtual-ta/search"
)

func TestEvaluateSingleCase(t *testing.T) {
	// Retrieval returns doc_1 (three term hits) ahead of doc_2 (one term
	// hit); only doc_1 is labeled relevant. Precision over the two
	// retrieved documents is 0.5, recall is 1.0, and with the single
	// relevant document at rank 1 average precision is 1.0.
	store := seedStore(t, []seedChunk{
		{doc: 1, chunk: 0, text: "docker docker docker", vector: []float32{0, 1}},
		{doc: 2, chunk: 0, text: "docker setup", vector: []float32{0, 1}},
	})
	svc := newService(t, store, &fixedEmbedder{})

	metrics := svc.Evaluate(context.Background(), []search.Case{
		{Query: "docker", RelevantIDs: []string{"doc_1"}},
	})

	assert.InDelta(t, 0.5, metrics.Precision, 1e-9)
	assert.InDelta(t, 1.0, metrics.Recall, 1e-9)
	assert.InDelta(t, 1.0, metrics.MAP, 1e-9)
}

func TestEvaluateAveragesAcrossCases(t *testing.T) {
	store := seedStore(t, []seedChunk{
		{doc: 0, chunk: 0, text: "docker docker", vector: []float32{0, 1}},
	})
	svc := newService(t, store, &fixedEmbedder{})

	metrics := svc.Evaluate(context.Background(), []search.Case{
		// Perfect case: the one retrieved document is the one relevant.
		{Query: "docker", RelevantIDs: []string{"doc_0"}},
		// Total miss: the labeled document is never retrieved, so the
		// case scores zero instead of aborting the run.
		{Query: "docker", RelevantIDs: []string{"doc_999"}},
	})

	assert.InDelta(t, 0.5, metrics.Precision, 1e-9)
	assert.InDelta(t, 0.5, metrics.Recall, 1e-9)
	assert.InDelta(t, 0.5, metrics.MAP, 1e-9)
}

func TestEvaluateNoRelevantLabels(t *testing.T) {
	store := seedStore(t, []seedChunk{
		{doc: 0, chunk: 0, text: "docker docker", vector: []float32{0, 1}},
	})
	svc := newService(t, store, &fixedEmbedder{})

	metrics := svc.Evaluate(context.Background(), []search.Case{
		{Query: "docker", RelevantIDs: nil},
	})

	assert.Zero(t, metrics.Precision)
	assert.Zero(t, metrics.Recall)
	assert.Zero(t, metrics.MAP)
}

func TestEvaluateEmptyCaseList(t *testing.T) {
	svc := newService(t, index.NewMemory(), &fixedEmbedder{})

	metrics := svc.Evaluate(context.Background(), nil)
	assert.Equal(t, search.Metrics{}, metrics)
}

func TestEvaluateCategoryScopedCase(t *testing.T) {
	store := seedStore(t, []seedChunk{
		{doc: 0, chunk: 0, text: "docker in the exam", vector: []float32{0, 1}, category: index.CategoryExam},
		{doc: 1, chunk: 0, text: "docker in general", vector: []float32{0, 1}, category: index.CategoryGeneral},
	})
	svc := newService(t, store, &fixedEmbedder{})

	metrics := svc.Evaluate(context.Background(), []search.Case{
		{Query: "docker", RelevantIDs: []string{"doc_0"}, Category: index.CategoryExam},
	})

	// The general document is filtered out, so the one retrieved document
	// is the relevant one.
	assert.InDelta(t, 1.0, metrics.Precision, 1e-9)
	assert.InDelta(t, 1.0, metrics.Recall, 1e-9)
	assert.InDelta(t, 1.0, metrics.MAP, 1e-9)
}
