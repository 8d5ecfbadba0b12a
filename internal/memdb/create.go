package memdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rcliao/memory-stream/internal/model"
	"github.com/rcliao/memory-stream/internal/scoring"
	"github.com/rcliao/memory-stream/internal/seed"
	"github.com/rcliao/memory-stream/internal/store"
	"github.com/rcliao/memory-stream/internal/vectorindex"
)

// Create builds database name from a seed file, one memory per line. An
// empty seedPath means the default <name>_seed_memories.txt next to the
// database. It reports false without touching anything when the database
// already exists.
func (m *Manager) Create(ctx context.Context, name, seedPath string, now time.Time) (bool, error) {
	p, err := m.Paths(name)
	if err != nil {
		return false, err
	}

	idxExists, err := fileExists(p.Index)
	if err != nil {
		return false, err
	}
	recFile := m.open(p.Records)
	recExists := recFile.Exists()
	switch {
	case idxExists && recExists:
		m.log.Info("database exists, skipping create", "name", name)
		return false, nil
	case idxExists || recExists:
		return false, &model.DisparityError{
			IndexCount:  -1,
			RecordCount: -1,
			Detail:      fmt.Sprintf("database %q is half written: index present=%t, metadata present=%t", name, idxExists, recExists),
		}
	}

	if seedPath == "" {
		seedPath = p.Seed
	}
	lines, err := seed.ReadLines(seedPath)
	if err != nil {
		return false, err
	}

	idx, err := vectorindex.New(m.dims)
	if err != nil {
		return false, err
	}
	defer idx.Unload()

	records := model.Records{}
	if err := m.addMemories(ctx, idx, records, lines, now); err != nil {
		return false, err
	}
	if err := m.persist(idx, records, recFile, p.Index); err != nil {
		return false, err
	}

	m.log.Info("created database", "name", name, "memories", len(records), "seed", seedPath)
	return true, nil
}

// addMemories embeds, rates and inserts each description. A description's
// vector is added only once its rating is known.
func (m *Manager) addMemories(ctx context.Context, idx *vectorindex.Index, records model.Records, descriptions []string, now time.Time) error {
	recency, err := scoring.Recency(now, now, m.decay)
	if err != nil {
		return err
	}
	for _, d := range descriptions {
		vec, err := m.embedder.Embed(ctx, d)
		if err != nil {
			return fmt.Errorf("embed %q: %w", d, err)
		}
		rating, err := m.rater.Rate(ctx, d)
		if err != nil {
			return fmt.Errorf("rate %q: %w", d, err)
		}
		imp, err := scoring.NormalizeImportance(rating)
		if err != nil {
			return fmt.Errorf("rate %q: %w", d, err)
		}
		id, err := idx.Add(ctx, vec)
		if err != nil {
			return err
		}
		records[id] = model.NewRecord(d, now, recency, imp)
		m.log.Debug("added memory", "slot", id, "rating", rating, "description", d)
	}
	return nil
}

// persist builds and saves the index, then merges records into the
// metadata document and verifies the pair as written.
func (m *Manager) persist(idx *vectorindex.Index, records model.Records, recFile store.RecordStore, indexPath string) error {
	if err := idx.Build(); err != nil {
		return err
	}
	if err := idx.Save(indexPath); err != nil {
		return err
	}
	merged, err := recFile.Merge(records)
	if err != nil {
		return fmt.Errorf("merge metadata: %w", err)
	}
	return m.saveRecords(merged, recFile, idx)
}

// saveRecords writes records and re-reads them for the consistency check.
func (m *Manager) saveRecords(records model.Records, recFile store.RecordStore, idx Counter) error {
	if err := recFile.Save(records); err != nil {
		return err
	}
	saved, err := recFile.Load()
	if err != nil {
		return fmt.Errorf("re-read metadata: %w", err)
	}
	return Check(saved, idx)
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
