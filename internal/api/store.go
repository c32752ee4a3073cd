package api

import (
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Inspection is the stored result of an unpack request.
type Inspection struct {
	ID        string          `json:"id"`
	Object    string          `json:"object"`
	CreatedAt int64           `json:"created_at"`
	Layout    string          `json:"layout"`
	Offset    int             `json:"offset"`
	Consumed  int             `json:"consumed"`
	Strict    bool            `json:"strict"`
	Value     json.RawMessage `json:"value,omitempty"`
	Dump      string          `json:"dump,omitempty"`
	Records   json.RawMessage `json:"records,omitempty"`
	Error     *ResponseError  `json:"error,omitempty"`
}

// InspectionStore keeps the most recent inspections in memory. Once full,
// the oldest entry is dropped for each new one.
type InspectionStore struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]*Inspection
}

func NewInspectionStore(limit int) *InspectionStore {
	if limit <= 0 {
		limit = 256
	}
	return &InspectionStore{
		limit: limit,
		items: make(map[string]*Inspection),
	}
}

// Put assigns an ID and stores a copy of in.
func (s *InspectionStore) Put(in Inspection) Inspection {
	in.ID = "insp_" + uuid.NewString()
	in.Object = "inspection"

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.limit {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	stored := in
	s.items[in.ID] = &stored
	s.order = append(s.order, in.ID)
	return in
}

func (s *InspectionStore) Get(id string) (Inspection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.items[id]
	if !ok {
		return Inspection{}, false
	}
	return *in, true
}

func (s *InspectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return true
}

// List returns the stored inspections, newest first.
func (s *InspectionStore) List() []Inspection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Inspection, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.items[s.order[i]])
	}
	return out
}
