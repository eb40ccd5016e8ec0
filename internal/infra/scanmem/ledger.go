package scanmem

import (
	"context"
	"sync"

	"ipshield/internal/domain"
)

// Ledger is the process-wide in-memory ScanLedger. Records are stored in
// append order and read back newest first, so "first match" is the most
// recently appended record with the id.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.ScanRecord
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(ctx context.Context, rec domain.ScanRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec.Clone())
	return nil
}

func (l *Ledger) Update(ctx context.Context, id string, patch domain.ScanRecordPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		l.records[i] = l.records[i].Merge(patch)
	}
	return nil
}

func (l *Ledger) List(ctx context.Context) ([]domain.ScanRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ScanRecord, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		out = append(out, l.records[i].Clone())
	}
	return out, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (domain.ScanRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(id); i >= 0 {
		return l.records[i].Clone(), nil
	}
	return domain.ScanRecord{}, domain.ErrNotFound
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger) indexOf(id string) int {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].ID == id {
			return i
		}
	}
	return -1
}
