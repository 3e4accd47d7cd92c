package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// WasteStreams implements wastestream.Repository.
type WasteStreams struct {
	mu   sync.RWMutex
	rows map[wastestream.Number]wastestream.WasteStream
}

// NewWasteStreams creates an empty store.
func NewWasteStreams() *WasteStreams {
	return &WasteStreams{rows: make(map[wastestream.Number]wastestream.WasteStream)}
}

// Create implements wastestream.Repository.
func (s *WasteStreams) Create(_ context.Context, ws *wastestream.WasteStream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[ws.Number]; ok {
		return apperror.NewDuplicate("waste stream", "number", ws.Number.String())
	}
	s.rows[ws.Number] = *ws
	return nil
}

// Update implements wastestream.Repository.
func (s *WasteStreams) Update(_ context.Context, ws *wastestream.WasteStream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[ws.Number]
	if !ok {
		return apperror.NewNotFound("waste stream", ws.Number)
	}
	if stored.Version != ws.Version {
		return apperror.NewConcurrentModification("waste stream", ws.Number)
	}
	ws.SetVersion(ws.Version + 1)
	s.rows[ws.Number] = *ws
	return nil
}

// GetByNumber implements wastestream.Repository.
func (s *WasteStreams) GetByNumber(_ context.Context, number wastestream.Number) (*wastestream.WasteStream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.rows[number]
	if !ok {
		return nil, apperror.NewNotFound("waste stream", number)
	}
	return &ws, nil
}

// GetForUpdate implements wastestream.Repository.
func (s *WasteStreams) GetForUpdate(ctx context.Context, number wastestream.Number) (*wastestream.WasteStream, error) {
	return s.GetByNumber(ctx, number)
}

// Exists implements wastestream.Repository.
func (s *WasteStreams) Exists(_ context.Context, number wastestream.Number) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[number]
	return ok, nil
}

// FindByNumbers implements wastestream.Repository.
func (s *WasteStreams) FindByNumbers(_ context.Context, numbers []wastestream.Number) ([]*wastestream.WasteStream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*wastestream.WasteStream
	for _, n := range numbers {
		if ws, ok := s.rows[n]; ok {
			out = append(out, &ws)
		}
	}
	return out, nil
}

// List implements wastestream.Repository.
func (s *WasteStreams) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*wastestream.WasteStream], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*wastestream.WasteStream
	for _, n := range sortedKeys(s.rows) {
		ws := s.rows[n]
		if filter.Status != "" && string(ws.Status) != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(ws.WasteType.Name), strings.ToLower(filter.Search)) &&
			!strings.HasPrefix(n.String(), filter.Search) {
			continue
		}
		items = append(items, &ws)
	}
	return page(items, filter.Limit, filter.Offset), nil
}

// RecordActivity implements wastestream.Repository.
func (s *WasteStreams) RecordActivity(_ context.Context, numbers []wastestream.Number, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range numbers {
		ws, ok := s.rows[n]
		if !ok {
			continue
		}
		ws.RecordActivity(at)
		s.rows[n] = ws
	}
	return nil
}

// Len returns the number of stored streams.
func (s *WasteStreams) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

var _ wastestream.Repository = (*WasteStreams)(nil)
