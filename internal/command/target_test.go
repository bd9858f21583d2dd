package command

import (
	"testing"

	"mudengine/internal/worldmodel"
)

func TestFindTargetMatchesRoomObjectByKeywordPrefix(t *testing.T) {
	room := worldmodel.NewUniqueRoom(worldmodel.NewCatRef("misc", 1))
	sword := worldmodel.NewObjectPrototype(worldmodel.NewCatRef("misc", 10), "a steel sword")
	sword.Keywords = []string{"sword", "steel"}
	room.Objects.Add(room, sword)

	found, ok := FindTarget(nil, room, worldmodel.MaskObject, "swo", 1)
	if !ok || found.InstanceID() != sword.InstanceID() {
		t.Fatalf("FindTarget = %v, %v, want sword", found, ok)
	}
}

func TestFindTargetNthPicksSecondMatch(t *testing.T) {
	room := worldmodel.NewUniqueRoom(worldmodel.NewCatRef("misc", 1))
	first := worldmodel.NewObjectPrototype(worldmodel.NewCatRef("misc", 10), "a gold coin")
	first.Keywords = []string{"coin", "gold"}
	second := worldmodel.NewObjectPrototype(worldmodel.NewCatRef("misc", 11), "a gold coin")
	second.Keywords = []string{"coin", "gold"}
	room.Objects.Add(room, first)
	room.Objects.Add(room, second)

	found, ok := FindTarget(nil, room, worldmodel.MaskObject, "coin", 2)
	if !ok || found.InstanceID() != second.InstanceID() {
		t.Fatalf("FindTarget nth=2 = %v, %v, want second coin", found, ok)
	}
}

func TestFindTargetSearchesEquippedBeforeCarried(t *testing.T) {
	room := worldmodel.NewUniqueRoom(worldmodel.NewCatRef("misc", 1))
	player := worldmodel.NewPlayer("p1", "Rodak")
	room.Players.Add(room, player)

	carried := worldmodel.NewObjectPrototype(worldmodel.NewCatRef("misc", 20), "a cloak")
	carried.Keywords = []string{"cloak"}
	equipped := worldmodel.NewObjectPrototype(worldmodel.NewCatRef("misc", 21), "a cloak")
	equipped.Keywords = []string{"cloak"}
	equipped.Equipped = true
	player.Inventory.Add(player, carried)
	player.Inventory.Add(player, equipped)

	found, ok := FindTarget(player, room, worldmodel.MaskObject, "cloak", 1)
	if !ok || found.InstanceID() != equipped.InstanceID() {
		t.Fatalf("FindTarget = %v, %v, want equipped cloak first", found, ok)
	}
}

func TestFindTargetRespectsScopeMask(t *testing.T) {
	room := worldmodel.NewUniqueRoom(worldmodel.NewCatRef("misc", 1))
	goblin := worldmodel.NewMonsterPrototype(worldmodel.NewCatRef("misc", 30), "a goblin")
	goblin.Keywords = []string{"goblin"}
	room.Monsters.Add(room, goblin)

	_, ok := FindTarget(nil, room, worldmodel.MaskObject, "goblin", 1)
	if ok {
		t.Fatal("FindTarget matched a monster under MaskObject, want no match")
	}

	found, ok := FindTarget(nil, room, worldmodel.MaskMonster, "goblin", 1)
	if !ok || found.InstanceID() != goblin.InstanceID() {
		t.Fatalf("FindTarget under MaskMonster = %v, %v, want goblin", found, ok)
	}
}

func TestFindTargetNoMatchReturnsFalse(t *testing.T) {
	room := worldmodel.NewUniqueRoom(worldmodel.NewCatRef("misc", 1))
	_, ok := FindTarget(nil, room, worldmodel.MaskAll, "nonexistent", 1)
	if ok {
		t.Fatal("expected no match")
	}
}
