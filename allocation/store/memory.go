// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[allocation.Key]allocation.Record
}

var _ allocation.RecordStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{records: make(map[allocation.Key]allocation.Record)}
}

// Upsert replaces the whole record under the mutex: a reader never sees a
// half-written record, and two writers on the same key are last-write-wins.
func (m *Memory) Upsert(_ context.Context, record allocation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Key] = record
	return nil
}

func (m *Memory) Get(_ context.Context, key allocation.Key) (allocation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[key]
	if !ok {
		return allocation.Record{}, payroll.ErrRecordNotFound
	}
	return record, nil
}

func (m *Memory) Query(_ context.Context, filter allocation.Filter) ([]allocation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.Record
	for _, record := range m.records {
		if filter.Matches(record) {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		return a.EmployeeID < b.EmployeeID
	})
	return result, nil
}
