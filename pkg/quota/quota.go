package quota

import (
	"maps"
	"slices"
	"time"
)

// Dimension identifies a countable usage budget.
type Dimension string

const (
	DimensionAds      Dimension = "ads"
	DimensionFeatured Dimension = "featured"
	DimensionPromoted Dimension = "promoted"
	DimensionRefresh  Dimension = "refresh" // budget per UTC day
	DimensionFreeAds  Dimension = "free_ads"
)

// refreshDayLayout is the UTC day key used for the daily refresh window.
const refreshDayLayout = "2006-01-02"

// CategoryPath addresses a node in the category hierarchy. Empty L1/L2
// address the broader levels.
type CategoryPath struct {
	Category string `json:"category"`
	L1       string `json:"l1_category,omitempty"`
	L2       string `json:"l2_category,omitempty"`
}

// CategoryUsage is one category-scoped free-ads allotment.
type CategoryUsage struct {
	Category string `json:"category"`
	L1       string `json:"l1_category,omitempty"`
	L2       string `json:"l2_category,omitempty"`
	Allowed  int64  `json:"allowed"`
	Used     int64  `json:"used"`
}

// path returns the entry's position in the hierarchy.
func (c CategoryUsage) path() CategoryPath {
	return CategoryPath{Category: c.Category, L1: c.L1, L2: c.L2}
}

// State holds allotted and consumed units per dimension plus the
// category-scoped free-ad allotments.
type State struct {
	Allotted   map[Dimension]int64 `json:"allotted"`
	Consumed   map[Dimension]int64 `json:"consumed"`
	Categories []CategoryUsage     `json:"categories,omitempty"`

	// RefreshDay is the UTC day the refresh counter belongs to; the counter
	// resets when the day rolls over.
	RefreshDay string `json:"refresh_day,omitempty"`
}

// NewState builds a fresh State with zero consumption.
func NewState(allotted map[Dimension]int64, categories []CategoryUsage) State {
	st := State{
		Allotted:   maps.Clone(allotted),
		Consumed:   make(map[Dimension]int64, len(allotted)),
		Categories: slices.Clone(categories),
	}
	if st.Allotted == nil {
		st.Allotted = make(map[Dimension]int64)
	}
	for dim := range st.Allotted {
		st.Consumed[dim] = 0
	}
	return st
}

// Clone returns a deep copy so a turn can mutate a scratch state and commit
// or discard it atomically.
func (s State) Clone() State {
	return State{
		Allotted:   maps.Clone(s.Allotted),
		Consumed:   maps.Clone(s.Consumed),
		Categories: slices.Clone(s.Categories),
		RefreshDay: s.RefreshDay,
	}
}

// Validate reports whether amount more units fit the dimension's budget.
// It never mutates the state.
func (s State) Validate(dim Dimension, amount int64, now time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	allotted, ok := s.Allotted[dim]
	if !ok {
		return ErrUnknownDimension
	}
	consumed := s.Consumed[dim]
	if dim == DimensionRefresh && s.RefreshDay != now.UTC().Format(refreshDayLayout) {
		consumed = 0
	}
	if consumed+amount > allotted {
		return ErrBudgetExceeded
	}
	return nil
}

// ensureMaps normalizes nil maps so zero-value states and states decoded
// from storage can be mutated safely.
func (s *State) ensureMaps() {
	if s.Allotted == nil {
		s.Allotted = make(map[Dimension]int64)
	}
	if s.Consumed == nil {
		s.Consumed = make(map[Dimension]int64)
	}
}

// Consume validates and increments in one step. On error the state is
// untouched.
func (s *State) Consume(dim Dimension, amount int64, now time.Time) error {
	if err := s.Validate(dim, amount, now); err != nil {
		return err
	}
	s.ensureMaps()
	if dim == DimensionRefresh {
		day := now.UTC().Format(refreshDayLayout)
		if s.RefreshDay != day {
			s.Consumed[dim] = 0
			s.RefreshDay = day
		}
	}
	s.Consumed[dim] += amount
	return nil
}

// Refill raises the allotment for a dimension. Refilling an unknown
// dimension introduces it with zero consumption.
func (s *State) Refill(dim Dimension, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	s.ensureMaps()
	s.Allotted[dim] += amount
	if _, ok := s.Consumed[dim]; !ok {
		s.Consumed[dim] = 0
	}
	return nil
}

// Remaining returns the units left for a dimension; zero for unknown ones.
func (s State) Remaining(dim Dimension, now time.Time) int64 {
	allotted, ok := s.Allotted[dim]
	if !ok {
		return 0
	}
	consumed := s.Consumed[dim]
	if dim == DimensionRefresh && s.RefreshDay != now.UTC().Format(refreshDayLayout) {
		consumed = 0
	}
	if consumed >= allotted {
		return 0
	}
	return allotted - consumed
}

// resolveCategory finds the index of the most specific entry matching the
// requested path. An entry matches when every level it pins equals the
// request's level; specificity is the number of pinned levels.
func (s State) resolveCategory(path CategoryPath) (int, bool) {
	best, bestSpecificity := -1, -1
	for i, entry := range s.Categories {
		if entry.Category != path.Category {
			continue
		}
		specificity := 0
		if entry.L1 != "" {
			if entry.L1 != path.L1 {
				continue
			}
			specificity++
		}
		if entry.L2 != "" {
			if entry.L2 != path.L2 {
				continue
			}
			specificity++
		}
		if specificity > bestSpecificity {
			best, bestSpecificity = i, specificity
		}
	}
	return best, best >= 0
}

// ValidateCategory reports whether amount more free ads fit the budget
// bound to the most specific entry for path. It never mutates the state.
func (s State) ValidateCategory(path CategoryPath, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	i, ok := s.resolveCategory(path)
	if !ok {
		return ErrNoCategoryBudget
	}
	if s.Categories[i].Used+amount > s.Categories[i].Allowed {
		return ErrBudgetExceeded
	}
	return nil
}

// ConsumeCategory validates and increments the matching category entry in
// one step. On error the state is untouched.
func (s *State) ConsumeCategory(path CategoryPath, amount int64) error {
	if err := s.ValidateCategory(path, amount); err != nil {
		return err
	}
	i, _ := s.resolveCategory(path)
	s.Categories[i].Used += amount
	return nil
}

// RefillCategory raises the allotment of the most specific entry for path.
func (s *State) RefillCategory(path CategoryPath, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	i, ok := s.resolveCategory(path)
	if !ok {
		return ErrNoCategoryBudget
	}
	s.Categories[i].Allowed += amount
	return nil
}

// Check verifies every committed-state invariant; entities call it before
// persisting a turn.
func (s State) Check() bool {
	for dim, consumed := range s.Consumed {
		if consumed < 0 || consumed > s.Allotted[dim] {
			return false
		}
	}
	for _, entry := range s.Categories {
		if entry.Used < 0 || entry.Used > entry.Allowed {
			return false
		}
	}
	return true
}
