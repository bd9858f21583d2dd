package command

import (
	"strings"

	"mudengine/internal/worldmodel"
)

// FindTarget implements find_target(searcher, scope_mask, name, nth)
// (spec.md §4.3): it searches, in declared order, the room's exits, the
// searcher's equipped objects, the searcher's carried objects, the room's
// objects, the room's monsters, and the room's players, filtered by
// scopeMask, matching each candidate by exact id or keyword-prefix, and
// returns the nth match (1-indexed) in that traversal order.
func FindTarget(searcher *worldmodel.Player, room *worldmodel.Room, scopeMask worldmodel.KindMask, name string, nth int) (worldmodel.Entity, bool) {
	if nth <= 0 {
		nth = 1
	}
	name = strings.ToLower(name)
	count := 0

	match := func(e worldmodel.Entity, displayName string, keywords []string) (worldmodel.Entity, bool) {
		if !matchesName(name, displayName, keywords) {
			return nil, false
		}
		count++
		return e, count == nth
	}

	if scopeMask.Has(worldmodel.KindExit) && room != nil {
		for _, e := range room.Exits {
			if m, done := match(e, e.Name(), e.Keywords); done {
				return m, true
			}
		}
	}
	if scopeMask.Has(worldmodel.KindObject) && searcher != nil {
		for _, o := range searcher.Inventory.Ordered() {
			if !o.Equipped {
				continue
			}
			if m, done := match(o, o.Name(), o.Keywords); done {
				return m, true
			}
		}
		for _, o := range searcher.Inventory.Ordered() {
			if o.Equipped {
				continue
			}
			if m, done := match(o, o.Name(), o.Keywords); done {
				return m, true
			}
		}
	}
	if scopeMask.Has(worldmodel.KindObject) && room != nil {
		for _, o := range room.Objects.Ordered() {
			if m, done := match(o, o.Name(), o.Keywords); done {
				return m, true
			}
		}
	}
	if scopeMask.Has(worldmodel.KindMonster) && room != nil {
		for _, mo := range room.Monsters.Ordered() {
			if m, done := match(mo, mo.Name(), mo.Keywords); done {
				return m, true
			}
		}
	}
	if scopeMask.Has(worldmodel.KindPlayer) && room != nil {
		for _, p := range room.Players.Ordered() {
			if m, done := match(p, p.Name(), nil); done {
				return m, true
			}
		}
	}
	return nil, false
}

// matchesName reports whether query names candidate, by exact equality,
// prefix of the display name, or prefix of any keyword.
func matchesName(query, candidate string, keywords []string) bool {
	candidate = strings.ToLower(candidate)
	if candidate == query || strings.HasPrefix(candidate, query) {
		return true
	}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == query || strings.HasPrefix(kw, query) {
			return true
		}
	}
	return false
}
