// Package worldmodel defines the server's core data model: CatRef entity
// addressing, the tagged Entity variant (Player/Monster/Object/Exit/Room),
// and the containment sets that keep parent/child membership consistent
// (spec.md §3 Data Model, §9 design note on runtime type discrimination).
package worldmodel

import (
	"fmt"
	"strings"
)

// maxAreaLen mirrors catRef.cpp's setArea truncation (20 characters).
const maxAreaLen = 20

// CatRef is the {area, id} pair addressing a unique disk-backed entity,
// grounded on catRef.cpp's CatRef struct. Area is always stored lower-case
// and truncated to maxAreaLen, matching CatRef::setArea.
type CatRef struct {
	Area string
	ID   int
}

// NewCatRef builds a CatRef, normalizing area the way CatRef::setArea does.
func NewCatRef(area string, id int) CatRef {
	return CatRef{Area: normalizeArea(area), ID: id}
}

// DefaultCatRef returns the zero CatRef anchored to defaultArea, mirroring
// the CatRef() default constructor's gConfig->defaultArea fallback.
func DefaultCatRef(defaultArea string) CatRef {
	return CatRef{Area: normalizeArea(defaultArea), ID: 0}
}

func normalizeArea(area string) string {
	if len(area) > maxAreaLen {
		area = area[:maxAreaLen]
	}
	return strings.ToLower(area)
}

// IsAreaOnly reports whether this reference names only a directory, not a
// specific entity file — CatRef.id < 0, per spec.md §3.
func (c CatRef) IsAreaOnly() bool { return c.ID < 0 }

// IsArea reports whether c's area matches name (CatRef::isArea).
func (c CatRef) IsArea(name string) bool { return c.Area == name }

// String renders the canonical "area:id" form used as cache/hash keys.
func (c CatRef) String() string {
	return fmt.Sprintf("%s:%d", c.Area, c.ID)
}

// ReloadString renders the "area.id" form catRef.cpp's rstr() used when
// persisting a reference for a later reload.
func (c CatRef) ReloadString() string {
	return fmt.Sprintf("%s.%d", c.Area, c.ID)
}

// IsZero reports whether c is the empty reference (no area, no id).
func (c CatRef) IsZero() bool { return c.Area == "" && c.ID == 0 }
