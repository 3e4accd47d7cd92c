package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
)

// ImportErrors implements streamimport.ErrorRepository.
type ImportErrors struct {
	mu     sync.Mutex
	nextID int64
	rows   []streamimport.StoredError
}

// Save implements streamimport.ErrorRepository.
func (s *ImportErrors) Save(_ context.Context, errs []streamimport.StoredError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range errs {
		s.nextID++
		e.ID = s.nextID
		s.rows = append(s.rows, e)
	}
	return nil
}

// List implements streamimport.ErrorRepository.
func (s *ImportErrors) List(_ context.Context, f streamimport.ErrorFilter) (domain.ListResult[streamimport.StoredError], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []streamimport.StoredError
	for _, e := range s.rows {
		if f.ImportID != nil && e.ImportID != *f.ImportID {
			continue
		}
		items = append(items, e)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return page(items, f.Limit, f.Offset), nil
}

// Clear implements streamimport.ErrorRepository.
func (s *ImportErrors) Clear(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.rows))
	s.rows = nil
	return n, nil
}

// Archive implements streamimport.Archive in memory.
type Archive struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// Store implements streamimport.Archive.
func (a *Archive) Store(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Files == nil {
		a.Files = make(map[string][]byte)
	}
	a.Files[key] = append([]byte(nil), data...)
	return nil
}

var (
	_ streamimport.ErrorRepository = (*ImportErrors)(nil)
	_ streamimport.Archive         = (*Archive)(nil)
)
