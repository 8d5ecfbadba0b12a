package memdb

import (
	"fmt"

	"github.com/rcliao/memory-stream/internal/vectorindex"
)

// Load opens database name. The caller owns the returned index and must
// Close the database when done.
func (m *Manager) Load(name string) (*Database, error) {
	p, err := m.Paths(name)
	if err != nil {
		return nil, err
	}

	idx, err := vectorindex.Load(p.Index, m.dims)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	rs := m.open(p.Records)
	records, err := rs.Load()
	if err != nil {
		idx.Unload()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if err := Check(records, idx); err != nil {
		idx.Unload()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	m.log.Debug("loaded database", "name", name, "memories", len(records))
	return &Database{Name: name, Index: idx, Records: records, Paths: p, records: rs}, nil
}
