package worldmodel

// Exit connects a Room to a destination, addressed by CatRef (or, for an
// Area room destination, by map offset).
type Exit struct {
	entityBase

	Keywords    []string
	Description string

	Destination CatRef
	DestX       int
	DestY       int
	ToArea      bool // true when Destination targets an Area room marker

	Hidden         bool
	Obvious        bool
	AllowLookThrough bool
	Open           bool
	Locked         bool
	RequiresKey    string // keyword of the Object that unlocks this exit
}

// NewExit constructs an exit named name leading to dest.
func NewExit(name string, dest CatRef) *Exit {
	e := &Exit{Destination: dest}
	e.id = name
	e.name = name
	return e
}

func (e *Exit) Kind() Kind { return KindExit }

// MatchesKeyword reports whether token equals this exit's primary name or
// one of its keywords. The match is exact; prefixes do not match.
func (e *Exit) MatchesKeyword(token string) bool {
	if e.name == token {
		return true
	}
	for _, kw := range e.Keywords {
		if kw == token {
			return true
		}
	}
	return false
}
