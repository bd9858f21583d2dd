package worldmodel

// Object is an item: carried, equipped, worn, or sitting in a room.
// Cached objects (C4) are prototypes; an object picked up or spawned into
// play is a distinct copy owned by exactly one container at a time.
type Object struct {
	entityBase

	Ref      CatRef // the prototype this instance was cloned from
	Keywords []string

	Weight   int
	Value    int
	Wearable bool
	WornSlot string

	// Equipped is set by whichever Player/Monster wears or wields this
	// object; false for objects merely carried or lying in a room.
	Equipped bool
}

// NewObjectPrototype constructs an unattached object for C4's cache.
func NewObjectPrototype(ref CatRef, name string) *Object {
	o := &Object{Ref: ref}
	o.id = ref.String()
	o.name = name
	return o
}

// Clone returns a fresh, independently-owned copy of the prototype with a
// new instance id, the way C4 hands out live instances from a cached
// prototype (spec.md §4.4: "Monsters/Objects are cached as prototypes;
// active instances are separate copies").
func (o *Object) Clone(instanceID string) *Object {
	clone := *o
	clone.entityBase = entityBase{id: instanceID, name: o.name}
	clone.Equipped = false
	return &clone
}

func (o *Object) Kind() Kind { return KindObject }

// MatchesKeyword reports whether token names this object by its primary
// name or one of its keywords.
func (o *Object) MatchesKeyword(token string) bool {
	if o.name == token {
		return true
	}
	for _, kw := range o.Keywords {
		if kw == token {
			return true
		}
	}
	return false
}
