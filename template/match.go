package template

import (
	"fmt"

	"github.com/vizrule-org/vizrule/schema"
)

// ============================================================================
// TEMPLATE MATCHER — Can this dataset fill this template's slots?
// ============================================================================
// Matching is fail-fast: required slots are checked in declaration order and
// the first unfillable slot ends the match with its name as the failure
// reason. A satisfied match binds concrete fields to each required slot, then
// fills optional slots greedily from whatever fields remain unused, category
// fields first, then geo, then leftover metrics. Matching is a pure function
// of its inputs.
// ============================================================================

// Match is the outcome of matching one template against one dataset.
type Match struct {
	TemplateID    string                            `json:"templateId"`
	Satisfied     bool                              `json:"satisfied"`
	FilledSlots   map[Slot][]schema.FieldDescriptor `json:"filledSlots,omitempty"`
	FailureReason string                            `json:"failureReason,omitempty"`
}

// MatchTemplate matches a single template against classified fields.
func MatchTemplate(t ChartTemplate, fields []schema.FieldDescriptor) Match {
	buckets := schema.Partition(fields)

	filled := make(map[Slot][]schema.FieldDescriptor)
	used := make(map[string]bool)

	for _, slot := range t.RequiredSlots {
		bound, ok := bindSlot(slot, buckets, used)
		if !ok {
			return Match{
				TemplateID:    t.ID,
				Satisfied:     false,
				FailureReason: fmt.Sprintf("missing required slot %s", slot),
			}
		}
		filled[slot] = bound
		for _, f := range bound {
			used[f.Name] = true
		}
	}

	for _, slot := range t.OptionalSlots {
		if f, ok := pickUnused(buckets, used); ok {
			filled[slot] = []schema.FieldDescriptor{f}
			used[f.Name] = true
		}
	}

	return Match{TemplateID: t.ID, Satisfied: true, FilledSlots: filled}
}

// bindSlot resolves one required slot against the role buckets.
func bindSlot(slot Slot, b schema.Buckets, used map[string]bool) ([]schema.FieldDescriptor, bool) {
	switch slot {
	case SlotTime:
		return first(b.Time)
	case SlotGeo:
		return first(b.Geo)
	case SlotMetric:
		return first(b.Metric)
	case SlotCategory:
		return first(b.Category)
	case SlotCategoryOrGeo:
		return first(b.CategoryOrGeo)
	case SlotMetricX:
		return pair(b.Metric, 0)
	case SlotMetricY:
		return pair(b.Metric, 1)
	case SlotCategoryX:
		return pair(b.Category, 0)
	case SlotCategoryY:
		return pair(b.Category, 1)
	case SlotGroup:
		// A grouping field is a category, or a second geo field when the
		// dataset has geography at two levels. Prefer a category not bound
		// to another slot yet.
		for _, f := range b.Category {
			if !used[f.Name] {
				return []schema.FieldDescriptor{f}, true
			}
		}
		if len(b.Category) > 0 {
			return []schema.FieldDescriptor{b.Category[0]}, true
		}
		if len(b.Geo) > 1 {
			return []schema.FieldDescriptor{b.Geo[1]}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func first(bucket []schema.FieldDescriptor) ([]schema.FieldDescriptor, bool) {
	if len(bucket) == 0 {
		return nil, false
	}
	return []schema.FieldDescriptor{bucket[0]}, true
}

// pair requires a bucket of at least two fields and binds the i-th.
func pair(bucket []schema.FieldDescriptor, i int) ([]schema.FieldDescriptor, bool) {
	if len(bucket) < 2 {
		return nil, false
	}
	return []schema.FieldDescriptor{bucket[i]}, true
}

// pickUnused returns the first still-unused field, preferring category over
// geo over metric overflow.
func pickUnused(b schema.Buckets, used map[string]bool) (schema.FieldDescriptor, bool) {
	for _, bucket := range [][]schema.FieldDescriptor{b.Category, b.Geo, b.Metric} {
		for _, f := range bucket {
			if !used[f.Name] {
				return f, true
			}
		}
	}
	return schema.FieldDescriptor{}, false
}

// PrimarySlotField returns the field bound to the template's leading
// category-like slot, used by the heuristic filter for cardinality checks.
func (m Match) PrimarySlotField() (schema.FieldDescriptor, bool) {
	for _, slot := range []Slot{SlotCategory, SlotCategoryOrGeo, SlotCategoryX, SlotGeo} {
		if fields := m.FilledSlots[slot]; len(fields) > 0 {
			return fields[0], true
		}
	}
	return schema.FieldDescriptor{}, false
}

// SlotField returns the single field bound to a slot, when present.
func (m Match) SlotField(slot Slot) (schema.FieldDescriptor, bool) {
	if fields := m.FilledSlots[slot]; len(fields) > 0 {
		return fields[0], true
	}
	return schema.FieldDescriptor{}, false
}

// UsedFieldNames lists every field name bound to any slot.
func (m Match) UsedFieldNames() map[string]bool {
	names := make(map[string]bool)
	for _, fields := range m.FilledSlots {
		for _, f := range fields {
			names[f.Name] = true
		}
	}
	return names
}
