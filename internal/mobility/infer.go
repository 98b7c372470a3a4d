package mobility

import "time"

// Inferencer picks the most likely place for an identity at a point in time.
type Inferencer struct {
	store *Store
	loc   *time.Location
}

// NewInferencer creates an inferencer over store. Timestamps are converted to
// loc before the weekday and time of day are read; nil keeps them as given.
func NewInferencer(store *Store, loc *time.Location) *Inferencer {
	return &Inferencer{store: store, loc: loc}
}

func (i *Inferencer) at(now time.Time) time.Time {
	if i.loc != nil {
		return now.In(i.loc)
	}
	return now
}

// Candidates returns all entries of identity active at now, in row order.
func (i *Inferencer) Candidates(identity string, now time.Time) []Entry {
	now = i.at(now)
	var active []Entry
	for _, e := range i.store.Entries(identity) {
		if e.ActiveAt(now) {
			active = append(active, e)
		}
	}
	return active
}

// Infer returns the active entry with the highest weight. Equal weights keep
// the earliest row. ok is false when the identity has no active entry.
func (i *Inferencer) Infer(identity string, now time.Time) (Entry, bool) {
	active := i.Candidates(identity, now)
	if len(active) == 0 {
		return Entry{}, false
	}
	best := active[0]
	for _, e := range active[1:] {
		if e.Weight > best.Weight {
			best = e
		}
	}
	return best, true
}
