package worldmodel

// SessionLink is the weak back-reference from Player to its Session,
// grounded in spec.md §9's design note on cyclic ownership: Player never
// owns the Session, and must never treat this link as a liveness claim by
// itself — Disconnected must be consulted. The session package's concrete
// Session type implements this interface; worldmodel never imports it,
// avoiding an import cycle.
type SessionLink interface {
	Disconnected() bool
}

// Player is a live character. It owns its inventory and followers
// (pets); its reference to the connecting Session is weak and may be nil
// (link-dead) or Disconnected (reconnect race), per spec.md §3.
type Player struct {
	entityBase

	level int
	Flags map[string]bool

	BoundRoom   CatRef // "home" room, restored on login if no current room
	CurrentRoom CatRef // persisted room reference, used to re-attach on load

	Inventory *EntitySet[*Object]
	Followers *EntitySet[*Monster]

	// Refusals lists player names this player has refused group/duel/etc
	// invitations from, cleared on logout.
	Refusals map[string]bool

	// DailyCounters is a generic per-player counter map gameplay code may
	// increment freely (e.g. daily quest attempts); C7's daily-boundary
	// job resets every entry to zero once per wall-clock day.
	DailyCounters map[string]int

	session SessionLink
}

// NewPlayer constructs a Player named name with instance id id.
func NewPlayer(id, name string) *Player {
	p := &Player{
		Flags:         make(map[string]bool),
		Inventory:     NewEntitySet[*Object](),
		Followers:     NewEntitySet[*Monster](),
		Refusals:      make(map[string]bool),
		DailyCounters: make(map[string]int),
	}
	p.id = id
	p.name = name
	return p
}

func (p *Player) Kind() Kind { return KindPlayer }

// Level returns p's experience level, consulted by command gate
// predicates (internal/command) and combat/skill checks.
func (p *Player) Level() int { return p.level }

// SetLevel sets p's experience level.
func (p *Player) SetLevel(n int) { p.level = n }

// Flag reports whether p carries the named boolean flag, the generic
// form of HasKey used by internal/command's auth gate predicates.
func (p *Player) Flag(name string) bool { return p.Flags[name] }

// SetSession attaches link as p's weak back-reference; called once by
// internal/server when a login reaches MOTD, before the player enters the
// world.
func (p *Player) SetSession(link SessionLink) { p.session = link }

// Session returns p's current session link, or nil if the player has
// never been linked or has since been explicitly cleared.
func (p *Player) Session() SessionLink { return p.session }

// ClearSession invalidates the weak back-reference. Called by
// internal/server's connection teardown (never by Player itself), per the design
// note that the owner of the strong resource invalidates the weak link.
func (p *Player) ClearSession() { p.session = nil }

// Linked reports whether p currently has a live, non-disconnected
// session — the condition target resolution and output delivery consult
// before addressing this player.
func (p *Player) Linked() bool {
	return p.session != nil && !p.session.Disconnected()
}

// HasKey reports whether p holds keyword in its key flags, mirroring the
// teacher's CommandHandler.Player.HasKey used by locked-exit checks.
func (p *Player) HasKey(keyword string) bool {
	if keyword == "" {
		return true
	}
	return p.Flags["key:"+keyword]
}
