package worldmodel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCatRefNormalizesArea(t *testing.T) {
	c := NewCatRef("HighPort", 12)
	assert.Equal(t, "highport", c.Area)
	assert.Equal(t, "highport:12", c.String())
	assert.Equal(t, "highport.12", c.ReloadString())
}

func TestNewCatRefTruncatesLongArea(t *testing.T) {
	c := NewCatRef(strings.Repeat("x", 40), 1)
	assert.Len(t, c.Area, maxAreaLen)
}

func TestIsAreaOnly(t *testing.T) {
	assert.True(t, CatRef{Area: "misc", ID: -1}.IsAreaOnly())
	assert.False(t, CatRef{Area: "misc", ID: 0}.IsAreaOnly())
}

func TestDefaultCatRefUsesConfiguredArea(t *testing.T) {
	c := DefaultCatRef("Misc")
	assert.True(t, c.IsZero())
	assert.Equal(t, "misc", c.Area)
}
