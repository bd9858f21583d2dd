// Package content implements the Entity loader seam (spec.md §1): the
// abstraction C4's caches call on a miss, and its default filesystem/XML
// implementation matching the §6 naming convention
// "<kind><zero-padded id>.xml" inside an area's directory.
package content

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"mudengine/internal/mudcode"
	"mudengine/internal/worldmodel"
)

// Loader loads a world entity by its CatRef key, returning a
// mudcode.Content error on a missing or malformed file. The gameplay
// content system this seam hands off to is explicitly out of scope
// (spec.md §1); this package only owns the file lookup and the XML shape
// fixed attributes need to round-trip.
type Loader interface {
	LoadRoom(ref worldmodel.CatRef) (*worldmodel.Room, error)
	LoadMonster(ref worldmodel.CatRef) (*worldmodel.Monster, error)
	LoadObject(ref worldmodel.CatRef) (*worldmodel.Object, error)
	SaveRoom(room *worldmodel.Room) error
}

// FileLoader is the default Loader, backed by one XML document per
// entity under <AreaDir>/<area>/<kind><zero-padded id>.xml.
type FileLoader struct {
	AreaDir string
	// IDWidth is the zero-padded width for the numeric id in a filename;
	// the teacher's pack carries no convention for this, so it defaults
	// to 3 (room1.xml -> room001.xml) unless overridden.
	IDWidth int
}

// NewFileLoader returns a FileLoader rooted at areaDir.
func NewFileLoader(areaDir string) *FileLoader {
	return &FileLoader{AreaDir: areaDir, IDWidth: 3}
}

func (f *FileLoader) width() int {
	if f.IDWidth <= 0 {
		return 3
	}
	return f.IDWidth
}

// pathFor builds <AreaDir>/<area>/<kind><zero-padded id>.xml.
func (f *FileLoader) pathFor(kind string, ref worldmodel.CatRef) string {
	name := fmt.Sprintf("%s%0*d.xml", kind, f.width(), ref.ID)
	return filepath.Join(f.AreaDir, ref.Area, name)
}

// xmlRoom, xmlExit, xmlMonster, xmlObject are the on-disk document shapes:
// the root element names the top-level type and child element names
// match in-memory attribute names, per spec.md §6. Unknown elements are
// ignored by encoding/xml's default decode behavior (forward
// compatibility, matching files-xml-read.cpp's tolerant parse stance).
type xmlRoom struct {
	XMLName     xml.Name       `xml:"Room"`
	Title       string         `xml:"Title"`
	Description string         `xml:"Description"`
	Exits       []xmlExit      `xml:"Exit"`
	ObjectRefs  []xmlObjectRef `xml:"ObjectRef"`
}

// xmlObjectRef names a prototype object this room spawns an instance of
// on load, by CatRef (Area/Id), matching the Exit/DestArea,DestId attr
// convention.
type xmlObjectRef struct {
	Area string `xml:"Area,attr"`
	ID   int    `xml:"Id,attr"`
}

type xmlExit struct {
	Name             string `xml:"Name,attr"`
	DestArea         string `xml:"DestArea,attr"`
	DestID           int    `xml:"DestId,attr"`
	Description      string `xml:"Description"`
	Hidden           xmlBit `xml:"Hidden,attr"`
	Obvious          xmlBit `xml:"Obvious,attr"`
	AllowLookThrough xmlBit `xml:"AllowLookThrough,attr"`
	Open             xmlBit `xml:"Open,attr"`
	Locked           xmlBit `xml:"Locked,attr"`
	RequiresKey      string `xml:"RequiresKey,attr"`
}

type xmlMonster struct {
	XMLName  xml.Name `xml:"Monster"`
	Name     string   `xml:"Name,attr"`
	Keywords []string `xml:"Keyword"`
}

type xmlObject struct {
	XMLName  xml.Name `xml:"Object"`
	Name     string   `xml:"Name,attr"`
	Keywords []string `xml:"Keyword"`
	Weight   int      `xml:"Weight,attr"`
	Value    int      `xml:"Value,attr"`
	Wearable xmlBit   `xml:"Wearable,attr"`
	WornSlot string   `xml:"WornSlot,attr"`
}

// xmlBit is a bool attribute that marshals as "0"/"1" rather than
// encoding/xml's default "false"/"true", matching spec.md §6 ("booleans
// are 0/1") and the original file format. Unmarshal stays tolerant of
// "true"/"false" too, so files written before this type existed (or by
// any other tool) still round-trip.
type xmlBit bool

func (b xmlBit) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	v := "0"
	if b {
		v = "1"
	}
	return xml.Attr{Name: name, Value: v}, nil
}

func (b *xmlBit) UnmarshalXMLAttr(attr xml.Attr) error {
	switch attr.Value {
	case "1", "true", "True":
		*b = true
	default:
		*b = false
	}
	return nil
}

func (f *FileLoader) LoadRoom(ref worldmodel.CatRef) (*worldmodel.Room, error) {
	var doc xmlRoom
	if err := readXML(f.pathFor("room", ref), &doc); err != nil {
		return nil, err
	}
	room := worldmodel.NewUniqueRoom(ref)
	room.Title = doc.Title
	room.Description = doc.Description
	for _, xe := range doc.Exits {
		e := worldmodel.NewExit(xe.Name, worldmodel.NewCatRef(xe.DestArea, xe.DestID))
		e.Description = xe.Description
		e.Hidden = bool(xe.Hidden)
		e.Obvious = bool(xe.Obvious)
		e.AllowLookThrough = bool(xe.AllowLookThrough)
		e.Open = bool(xe.Open)
		e.Locked = bool(xe.Locked)
		e.RequiresKey = xe.RequiresKey
		room.AddExit(e)
	}
	for _, xr := range doc.ObjectRefs {
		room.StartingObjects = append(room.StartingObjects, worldmodel.NewCatRef(xr.Area, xr.ID))
	}
	return room, nil
}

func (f *FileLoader) LoadMonster(ref worldmodel.CatRef) (*worldmodel.Monster, error) {
	var doc xmlMonster
	if err := readXML(f.pathFor("monster", ref), &doc); err != nil {
		return nil, err
	}
	m := worldmodel.NewMonsterPrototype(ref, doc.Name)
	m.Keywords = doc.Keywords
	return m, nil
}

func (f *FileLoader) LoadObject(ref worldmodel.CatRef) (*worldmodel.Object, error) {
	var doc xmlObject
	if err := readXML(f.pathFor("object", ref), &doc); err != nil {
		return nil, err
	}
	o := worldmodel.NewObjectPrototype(ref, doc.Name)
	o.Keywords = doc.Keywords
	o.Weight = doc.Weight
	o.Value = doc.Value
	o.Wearable = bool(doc.Wearable)
	o.WornSlot = doc.WornSlot
	return o, nil
}

// SaveRoom persists room's permanent attributes (title, description,
// exits — not transient occupants) back to its XML file, used by C4 when
// an evictable room with no live player reaches the LRU tail.
func (f *FileLoader) SaveRoom(room *worldmodel.Room) error {
	doc := xmlRoom{Title: room.Title, Description: room.Description}
	for _, e := range room.Exits {
		doc.Exits = append(doc.Exits, xmlExit{
			Name:             e.Name(),
			DestArea:         e.Destination.Area,
			DestID:           e.Destination.ID,
			Description:      e.Description,
			Hidden:           xmlBit(e.Hidden),
			Obvious:          xmlBit(e.Obvious),
			AllowLookThrough: xmlBit(e.AllowLookThrough),
			Open:             xmlBit(e.Open),
			Locked:           xmlBit(e.Locked),
			RequiresKey:      e.RequiresKey,
		})
	}
	for _, ref := range room.StartingObjects {
		doc.ObjectRefs = append(doc.ObjectRefs, xmlObjectRef{Area: ref.Area, ID: ref.ID})
	}

	path := f.pathFor("room", room.Ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return mudcode.New(mudcode.Content, err)
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return mudcode.New(mudcode.Content, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return mudcode.New(mudcode.Content, err)
	}
	return nil
}

func readXML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return mudcode.New(mudcode.Content, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return mudcode.NewWithMessage(mudcode.Content, fmt.Sprintf("malformed content file %s", path), err)
	}
	return nil
}
