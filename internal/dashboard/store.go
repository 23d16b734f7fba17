package dashboard

import (
	"github.com/langowen/metals/internal/entities"
	"iter"
	"slices"
)

// Store is the record set of one dashboard session. It is never modified after NewStore;
// a reload produces a new Store.
type Store struct {
	rates []entities.MetalRate
}

func NewStore(rates []entities.MetalRate) *Store {
	return &Store{rates: slices.Clone(rates)}
}

func (s *Store) Len() int { return len(s.rates) }

// All yields the records in load order.
func (s *Store) All() iter.Seq[entities.MetalRate] {
	return slices.Values(s.rates)
}

// Records returns a copy of the records in load order.
func (s *Store) Records() []entities.MetalRate {
	return slices.Clone(s.rates)
}

// RangeDates returns the smallest and largest date keys. ok is false for an empty store.
func (s *Store) RangeDates() (first, last string, ok bool) {
	for _, r := range s.rates {
		if !ok {
			first, last, ok = r.DateKey, r.DateKey, true
			continue
		}
		if r.DateKey < first {
			first = r.DateKey
		}
		if r.DateKey > last {
			last = r.DateKey
		}
	}
	return first, last, ok
}
