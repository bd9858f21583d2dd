package worldmodel

import "fmt"

// AddressKind distinguishes a Unique room (addressed by CatRef, backed by
// a file on disk) from an Area room (procedurally placed on a map marker),
// per spec.md §3.
type AddressKind int

const (
	AddressUnique AddressKind = iota
	AddressArea
)

// WanderDescriptor configures C7's autonomous wander job for a room: how
// often (and how likely) monsters from the area's random-monster table
// spawn in.
type WanderDescriptor struct {
	Enabled     bool
	TableArea   string
	PercentRoll int // 0-100 chance per wander pass
}

// Room is a world location. Unique rooms are addressed by CatRef and
// loaded from disk by C4; Area rooms are placed on a procedural map
// marker. Containment is exclusive: Players/Monsters/Objects each track
// their Parent back to this Room, and only Room's Add/Remove methods may
// change that pointer (spec.md §3).
type Room struct {
	Address AddressKind
	Ref     CatRef // valid when Address == AddressUnique
	MapX    int    // valid when Address == AddressArea
	MapY    int    // valid when Address == AddressArea

	Title       string
	Description string

	Players  *EntitySet[*Player]
	Monsters *EntitySet[*Monster]
	Objects  *EntitySet[*Object]
	Exits    []*Exit

	// StartingObjects are CatRefs to prototype objects this room spawns a
	// fresh instance of whenever it is faulted into C4's room cache — the
	// file-backed analogue of C7's wander job spawning monsters from a
	// table. Populated by content.FileLoader.LoadRoom; resolved against
	// the object-prototype cache by whatever loads the room.
	StartingObjects []CatRef

	Wander WanderDescriptor
}

// NewUniqueRoom constructs an empty Unique room addressed by ref.
func NewUniqueRoom(ref CatRef) *Room {
	return &Room{
		Address:  AddressUnique,
		Ref:      ref,
		Players:  NewEntitySet[*Player](),
		Monsters: NewEntitySet[*Monster](),
		Objects:  NewEntitySet[*Object](),
	}
}

// NewAreaRoom constructs an empty Area room at map coordinates (x, y).
func NewAreaRoom(area string, x, y int) *Room {
	return &Room{
		Address:  AddressArea,
		Ref:      CatRef{Area: normalizeArea(area)},
		MapX:     x,
		MapY:     y,
		Players:  NewEntitySet[*Player](),
		Monsters: NewEntitySet[*Monster](),
		Objects:  NewEntitySet[*Object](),
	}
}

func (r *Room) Kind() Kind { return KindRoom }

// InstanceID is the room's CatRef string for Unique rooms, or a synthetic
// "area@x,y" key for Area rooms — the key C4's cache hashes on.
func (r *Room) InstanceID() string {
	if r.Address == AddressUnique {
		return r.Ref.String()
	}
	return fmt.Sprintf("%s@%d,%d", r.Ref.Area, r.MapX, r.MapY)
}

func (r *Room) Name() string { return r.Title }

// Parent always returns nil: rooms are not contained by anything in this
// model (no Area-of-areas nesting).
func (r *Room) Parent() Container { return nil }

// HasLivePlayer reports whether any occupant is a connected player,
// the condition that makes a room un-evictable from C4's cache
// (spec.md §4.4).
func (r *Room) HasLivePlayer() bool {
	for _, p := range r.Players.Ordered() {
		if p.Linked() {
			return true
		}
	}
	return false
}

// AddExit appends e to the room's exit list and points its parent here.
func (r *Room) AddExit(e *Exit) {
	e.setParent(r)
	r.Exits = append(r.Exits, e)
}

// FindExit returns the first exit whose name or keyword matches name
// (case-sensitive exact or prefix match is the caller's concern — this is
// a plain name lookup used by the room description renderer).
func (r *Room) FindExit(name string) (*Exit, bool) {
	for _, e := range r.Exits {
		if e.MatchesKeyword(name) {
			return e, true
		}
	}
	return nil, false
}

// TransplantOccupants moves all players, monsters, and objects from src
// into r, used by C4's reload operation so in-progress occupants survive
// a room being re-parsed from disk (spec.md §4.4, end-to-end scenario 6).
func (r *Room) TransplantOccupants(src *Room) {
	for _, p := range src.Players.Ordered() {
		src.Players.Remove(p.InstanceID())
		r.Players.Add(r, p)
	}
	for _, m := range src.Monsters.Ordered() {
		src.Monsters.Remove(m.InstanceID())
		r.Monsters.Add(r, m)
	}
	for _, o := range src.Objects.Ordered() {
		src.Objects.Remove(o.InstanceID())
		r.Objects.Add(r, o)
	}
}
