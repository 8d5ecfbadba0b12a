package memdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/memory-stream/internal/model"
	"github.com/rcliao/memory-stream/internal/seed"
	"github.com/rcliao/memory-stream/internal/vectorindex"
)

// Update appends texts to database name. existing is the currently loaded
// index of that database; its vectors are copied into a fresh index under
// the same ids and it is unloaded before anything new is added. Blank texts
// are skipped.
func (m *Manager) Update(ctx context.Context, name string, texts []string, now time.Time, existing *vectorindex.Index) error {
	if existing == nil {
		return errors.New("update: no existing index")
	}
	if existing.State() == vectorindex.Unloaded {
		return fmt.Errorf("update %s: %w", name, vectorindex.ErrUnloaded)
	}
	p, err := m.Paths(name)
	if err != nil {
		existing.Unload()
		return err
	}

	idx, err := vectorindex.New(m.dims)
	if err != nil {
		existing.Unload()
		return err
	}
	defer idx.Unload()

	n := existing.Len()
	for i := 0; i < n; i++ {
		vec, err := existing.VectorAt(ctx, model.SlotID(i))
		if err == nil {
			_, err = idx.Add(ctx, vec)
		}
		if err != nil {
			existing.Unload()
			return fmt.Errorf("copy vector %d: %w", i, err)
		}
	}
	if err := existing.Unload(); err != nil {
		return err
	}

	var descriptions []string
	for _, t := range texts {
		if d := seed.Normalize(t); d != "" {
			descriptions = append(descriptions, d)
		}
	}

	fresh := model.Records{}
	if err := m.addMemories(ctx, idx, fresh, descriptions, now); err != nil {
		return err
	}
	if err := m.persist(idx, fresh, m.open(p.Records), p.Index); err != nil {
		return err
	}

	m.log.Info("updated database", "name", name, "copied", n, "added", len(fresh))
	return nil
}
