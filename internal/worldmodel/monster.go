package worldmodel

// Monster is a non-player creature. Cached monsters (C4) are prototypes;
// an active instance placed into a room by the tick scheduler or a spawn
// command is a distinct copy, per spec.md §4.4.
type Monster struct {
	entityBase

	Ref      CatRef
	Keywords []string

	// Active marks the instance as scheduled for C7's autonomous-behavior
	// pass (wander, aggression). Prototypes are never Active.
	Active bool

	// Owner is set when this monster is a pet; nil otherwise.
	Owner *Player

	Inventory *EntitySet[*Object]
}

// NewMonsterPrototype constructs an unattached monster for C4's cache.
func NewMonsterPrototype(ref CatRef, name string) *Monster {
	m := &Monster{Ref: ref, Inventory: NewEntitySet[*Object]()}
	m.id = ref.String()
	m.name = name
	return m
}

// Clone returns a fresh, independently-owned active instance of the
// prototype with a new instance id.
func (m *Monster) Clone(instanceID string) *Monster {
	clone := *m
	clone.entityBase = entityBase{id: instanceID, name: m.name}
	clone.Active = true
	clone.Owner = nil
	clone.Inventory = NewEntitySet[*Object]()
	return &clone
}

func (m *Monster) Kind() Kind { return KindMonster }

// MatchesKeyword reports whether token names this monster by its primary
// name or one of its keywords.
func (m *Monster) MatchesKeyword(token string) bool {
	if m.name == token {
		return true
	}
	for _, kw := range m.Keywords {
		if kw == token {
			return true
		}
	}
	return false
}
