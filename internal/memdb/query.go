package memdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rcliao/memory-stream/internal/model"
	"github.com/rcliao/memory-stream/internal/scoring"
)

// Result is one ranked memory.
type Result struct {
	ID          model.SlotID `json:"id" yaml:"id"`
	Description string       `json:"description" yaml:"description"`
	Score       float64      `json:"score" yaml:"score"`
	Relevance   float64      `json:"relevance" yaml:"relevance"`
	Recency     float64      `json:"recency" yaml:"recency"`
	Importance  float64      `json:"importance" yaml:"importance"`
}

// Query returns the descriptions of the k best memories for text.
func (m *Manager) Query(ctx context.Context, db *Database, text string, k int, now time.Time) ([]string, error) {
	results, err := m.Rank(ctx, db, text, k, now)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Description
	}
	return out, nil
}

// Rank scores the nearest neighbors of text, keeps the top k and marks them
// accessed at now. The scores reported are the ones used for ranking, i.e.
// computed with the recency stored before this access. The updated metadata
// is written back; the index is left as is.
func (m *Manager) Rank(ctx context.Context, db *Database, text string, k int, now time.Time) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query: k = %d: %w", k, model.ErrRange)
	}
	if db == nil || db.Index == nil {
		return nil, errors.New("query: database not loaded")
	}

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	neighbors, err := db.Index.Query(ctx, vec, m.base)
	if err != nil {
		return nil, err
	}

	candidates := make([]Result, 0, len(neighbors))
	for _, n := range neighbors {
		rec, ok := db.Records[n.ID]
		if !ok {
			return nil, &model.DisparityError{
				IndexCount:  db.Index.Len(),
				RecordCount: len(db.Records),
				MissingIDs:  []model.SlotID{n.ID},
				Detail:      "query",
			}
		}
		rel := scoring.Relevance(n.Distance)
		candidates = append(candidates, Result{
			ID:          n.ID,
			Description: rec.Description,
			Score:       m.weights.Score(rel, rec.Recency, rec.Importance),
			Relevance:   rel,
			Recency:     rec.Recency,
			Importance:  rec.Importance,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	// Compute every update first so an out-of-order timestamp changes nothing.
	touched := make(map[model.SlotID]model.Record, len(candidates))
	for _, c := range candidates {
		rec := db.Records[c.ID]
		r, err := scoring.Recency(now, rec.LastAccessedAt, m.decay)
		if err != nil {
			return nil, fmt.Errorf("memory %d: %w", c.ID, err)
		}
		rec.Touch(now, r)
		touched[c.ID] = rec
	}
	updated := db.Records.Clone()
	for id, rec := range touched {
		updated[id] = rec
	}

	// db.Records only changes once the write-back succeeded.
	if err := m.saveRecords(updated, db.records, db.Index); err != nil {
		return nil, err
	}
	db.Records = updated
	m.log.Debug("query", "name", db.Name, "candidates", len(neighbors), "returned", len(candidates))
	return candidates, nil
}
