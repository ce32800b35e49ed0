package memory

import (
	"sort"

	"github.com/datapilot/datapilot/internal/rank"
)

// ExampleSelector picks the training records most similar to a question for
// use as few-shot examples. Ordering is deterministic: score descending, then
// newest first, then lowest ID.
type ExampleSelector struct {
	Scorer      rank.Scorer
	MaxExamples int
}

// Select returns up to MaxExamples records. Records that share no tokens with
// the question still qualify; recency then decides, which keeps fresh
// examples flowing on datasets where every stored question is unrelated.
func (s *ExampleSelector) Select(question string, records []TrainingRecord) []TrainingRecord {
	if s.MaxExamples <= 0 || len(records) == 0 {
		return nil
	}

	type scored struct {
		record TrainingRecord
		score  float64
	}
	ranked := make([]scored, len(records))
	for i, record := range records {
		ranked[i] = scored{record: record, score: s.Scorer.Score(question, record.Question)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].record.CreatedAt.Equal(ranked[j].record.CreatedAt) {
			return ranked[i].record.CreatedAt.After(ranked[j].record.CreatedAt)
		}
		return ranked[i].record.ID < ranked[j].record.ID
	})

	limit := s.MaxExamples
	if limit > len(ranked) {
		limit = len(ranked)
	}
	selected := make([]TrainingRecord, 0, limit)
	for _, entry := range ranked[:limit] {
		selected = append(selected, entry.record)
	}
	return selected
}
