package search

import (
	"context"

	"github.com/coursekb/virtual-ta/index"
)

// evalK is the fixed retrieval depth used for evaluation runs.
const evalK = 10

// Case is one labeled evaluation query. RelevantIDs hold document
// identities (doc_<i>), not chunk identities.
type Case struct {
	Query       string         `json:"query"`
	RelevantIDs []string       `json:"relevant_doc_ids"`
	Category    index.Category `json:"category,omitempty"`
}

// Metrics aggregates retrieval quality over an evaluation run.
type Metrics struct {
	MAP       float64 `json:"MAP"`
	Precision float64 `json:"Precision"`
	Recall    float64 `json:"Recall"`
}

// Evaluate runs every case through hybrid retrieval and averages precision,
// recall, and average precision. A case whose retrieval comes back empty
// scores zero rather than aborting the run. An empty case list yields all
// zeros.
func (s *Service) Evaluate(ctx context.Context, cases []Case) Metrics {
	if len(cases) == 0 {
		return Metrics{}
	}

	var sumAP, sumPrecision, sumRecall float64
	for _, c := range cases {
		relevant := make(map[string]struct{}, len(c.RelevantIDs))
		for _, id := range c.RelevantIDs {
			relevant[id] = struct{}{}
		}

		results := s.Hybrid(ctx, c.Query, evalK, c.Category)
		retrieved := make([]string, 0, len(results))
		for _, r := range results {
			retrieved = append(retrieved, r.DocumentID)
		}

		precision, recall, ap := rankMetrics(retrieved, relevant)
		sumPrecision += precision
		sumRecall += recall
		sumAP += ap
	}

	n := float64(len(cases))
	return Metrics{
		MAP:       sumAP / n,
		Precision: sumPrecision / n,
		Recall:    sumRecall / n,
	}
}

// rankMetrics computes precision, recall, and standard average precision
// for one retrieved ranking.
func rankMetrics(retrieved []string, relevant map[string]struct{}) (precision, recall, ap float64) {
	if len(retrieved) == 0 || len(relevant) == 0 {
		return 0, 0, 0
	}

	hits := 0
	for rank, id := range retrieved {
		if _, ok := relevant[id]; ok {
			hits++
			ap += float64(hits) / float64(rank+1)
		}
	}

	precision = float64(hits) / float64(len(retrieved))
	recall = float64(hits) / float64(len(relevant))
	ap /= float64(len(relevant))
	return precision, recall, ap
}
