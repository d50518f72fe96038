package pipeline

import (
	"sort"
	"sync"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
)

// DriverStore is the in-memory domain.DriverState. It is read concurrently by
// the HTTP snapshot handler while polls write to it.
type DriverStore struct {
	mu    sync.RWMutex
	nodes map[string]map[string]domain.DriverUpdate
}

// NewDriverStore returns an empty store.
func NewDriverStore() *DriverStore {
	return &DriverStore{nodes: make(map[string]map[string]domain.DriverUpdate)}
}

// Last returns the last emitted display value for node/driver.
func (s *DriverStore) Last(node, driver string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.nodes[node][driver]
	return u.Value, ok
}

// Record stores u as the latest emission for its node and driver.
func (s *DriverStore) Record(u domain.DriverUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drivers, ok := s.nodes[u.Node]
	if !ok {
		drivers = make(map[string]domain.DriverUpdate)
		s.nodes[u.Node] = drivers
	}
	drivers[u.Driver] = u
}

// DropForecastFrom forgets every forecast node at or beyond day.
func (s *DriverStore) DropForecastFrom(day int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for node := range s.nodes {
		if d, ok := domain.ForecastDay(node); ok && d >= day {
			delete(s.nodes, node)
		}
	}
}

// Snapshot returns every recorded update ordered by node then driver.
func (s *DriverStore) Snapshot() []domain.DriverUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DriverUpdate, 0, len(s.nodes)*len(domain.ForecastDrivers))
	for _, drivers := range s.nodes {
		for _, u := range drivers {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Node != out[j].Node {
			return out[i].Node < out[j].Node
		}
		return out[i].Driver < out[j].Driver
	})
	return out
}
