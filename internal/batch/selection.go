// Package batch holds the client-side state core: the batch/shipment store,
// the selection set, the bulk-operation workflow and the wizard sequencing.
// It owns the Batch, the ShipmentRecord collection and the Selection set
// exclusively; the UI only reads through accessors and mutates through
// actions.
package batch

import "sort"

// Selection is the set of shipment record ids currently targeted for a bulk
// operation. It is scoped to the visible filtered view: every id must
// reference a currently loaded record, which the store enforces by clearing
// the set on filter changes and after destructive bulk actions.
type Selection map[int64]struct{}

// NewSelection returns an empty selection.
func NewSelection() Selection { return make(Selection) }

// Has reports membership.
func (s Selection) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Toggle returns a copy with id's membership flipped.
func (s Selection) Toggle(id int64) Selection {
	next := s.clone()
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return next
}

// IDs returns the members as a sorted list, the shape bulk requests carry.
func (s Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s Selection) clone() Selection {
	next := make(Selection, len(s))
	for id := range s {
		next[id] = struct{}{}
	}
	return next
}

// ToggleAll implements view-relative select-all as a toggle: if every visible
// id is already selected the result is empty, otherwise the result is exactly
// the visible ids. Pure function of its inputs, so calling it twice with an
// unchanged visible list is an involution.
func ToggleAll(visible []int64, current Selection) Selection {
	if AllSelected(visible, current) {
		return NewSelection()
	}
	next := make(Selection, len(visible))
	for _, id := range visible {
		next[id] = struct{}{}
	}
	return next
}

// AllSelected reports whether the visible list is non-empty and every visible
// id is selected. An empty list is never "all selected".
func AllSelected(visible []int64, current Selection) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if !current.Has(id) {
			return false
		}
	}
	return true
}
