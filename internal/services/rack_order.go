package services

import (
	"cmp"
	"math"
	"slices"

	"github.com/rtucker-mozilla/minventory/internal/models"
)

// RackOrdering orders systems for drawing a rack elevation. Systems are
// grouped by the integer part of RackOrder, highest slot first, and sorted
// by the full value ascending inside a group, so 31.01 comes before 31.02
// and both come before 30.00. Systems without a rack order keep their
// relative input order and follow the ordered ones.
func RackOrdering(systems []models.System) []models.System {
	ordered := make([]models.System, 0, len(systems))
	var unordered []models.System
	for _, s := range systems {
		if s.RackOrder == nil {
			unordered = append(unordered, s)
			continue
		}
		ordered = append(ordered, s)
	}

	slices.SortStableFunc(ordered, func(a, b models.System) int {
		if c := cmp.Compare(math.Floor(*b.RackOrder), math.Floor(*a.RackOrder)); c != 0 {
			return c
		}
		return cmp.Compare(*a.RackOrder, *b.RackOrder)
	})

	return append(ordered, unordered...)
}
