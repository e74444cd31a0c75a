package core

import (
	"fmt"
	"strings"
)

// Registry is the ordered set of expense definitions. Iteration order is
// insertion order and is load-bearing: next-due tie-breaks and monthly
// summaries walk the registry front to back.
//
// Mutations return a new slice; callers swap their snapshot on success.
type Registry []Expense

func (r Registry) Find(id string) (Expense, bool) {
	for _, e := range r {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

func (r Registry) nameTaken(name, excludeID string) bool {
	for _, e := range r {
		if e.ID == excludeID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Add appends a validated expense. Names are unique case-insensitively.
func (r Registry) Add(e Expense) (Registry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if _, ok := r.Find(e.ID); ok {
		return nil, fmt.Errorf("expense %s: %w", e.ID, ErrDuplicateID)
	}
	if r.nameTaken(e.Name, "") {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
	}
	out := make(Registry, len(r), len(r)+1)
	copy(out, r)
	return append(out, e), nil
}

// Edit replaces the expense with the same ID in place, keeping its position.
func (r Registry) Edit(e Expense) (Registry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if r.nameTaken(e.Name, e.ID) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
	}
	out := make(Registry, len(r))
	copy(out, r)
	for i := range out {
		if out[i].ID == e.ID {
			out[i] = e
			return out, nil
		}
	}
	return nil, fmt.Errorf("expense %s: %w", e.ID, ErrNotFound)
}

// Delete removes the expense by ID. Payments referencing it are untouched;
// they become orphans the ledger queries still handle.
func (r Registry) Delete(id string) (Registry, error) {
	out := make(Registry, 0, len(r))
	found := false
	for _, e := range r {
		if e.ID == id {
			found = true
			continue
		}
		out = append(out, e)
	}
	if !found {
		return nil, fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return out, nil
}
